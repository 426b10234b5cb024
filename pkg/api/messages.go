package api

import (
	"errors"
	"fmt"

	"github.com/valyala/fasthttp"

	"parley/pkg/api/router"
	"parley/pkg/grouping"
	"parley/pkg/models"
	"parley/pkg/reactions"
	"parley/pkg/store"
	"parley/pkg/store/keys"
)

type sendRequest struct {
	Content          string                  `json:"content"`
	Kind             models.MessageKind      `json:"kind"`
	ConversationKind models.ConversationKind `json:"conversation_kind"`
	SenderAvatarRef  string                  `json:"sender_avatar_ref,omitempty"`
	Attachments      []models.Attachment     `json:"attachments,omitempty"`
	Mentions         []string                `json:"mentions,omitempty"`
	Poll             *models.PollData        `json:"poll,omitempty"`
	CrossModuleRef   *models.CrossModuleRef  `json:"cross_module_ref,omitempty"`
}

func (r sendRequest) validate() error {
	if r.Content == "" && len(r.Attachments) == 0 && r.Poll == nil {
		return errors.New("message has no content")
	}
	if r.Kind == models.KindPoll && r.Poll == nil {
		return errors.New("poll message without poll")
	}
	if r.Poll != nil {
		return validatePoll(r.Poll)
	}
	return nil
}

func validatePoll(p *models.PollData) error {
	if len(p.Options) == 0 {
		return errors.New("poll has no options")
	}
	seen := make(map[string]bool, len(p.Options))
	for _, o := range p.Options {
		if o.ID == "" {
			return errors.New("poll option without id")
		}
		if seen[o.ID] {
			return fmt.Errorf("duplicate poll option %q", o.ID)
		}
		seen[o.ID] = true
		if len(o.VoterIDs) > 0 {
			return errors.New("new poll cannot carry votes")
		}
	}
	return nil
}

type editRequest struct {
	Content string `json:"content"`
}

type reactionRequest struct {
	Emoji string `json:"emoji"`
}

type voteRequest struct {
	OptionID string `json:"option_id"`
}

type messagesResponse struct {
	Messages []models.Message `json:"messages"`
}

type groupsResponse struct {
	Groups         []models.MessageGroup `json:"groups"`
	DateBoundaries []string              `json:"date_boundaries"`
}

// conversationParam extracts and validates {cid}, answering 400 on failure.
func conversationParam(ctx *fasthttp.RequestCtx) (string, bool) {
	cid := router.PathParam(ctx, "cid")
	if err := keys.ValidateConversationID(cid); err != nil {
		router.WriteJSONError(ctx, fasthttp.StatusBadRequest, err.Error())
		return "", false
	}
	return cid, true
}

func messageParams(ctx *fasthttp.RequestCtx) (cid, id string, ok bool) {
	if cid, ok = conversationParam(ctx); !ok {
		return "", "", false
	}
	id = router.PathParam(ctx, "id")
	if id == "" {
		router.WriteJSONError(ctx, fasthttp.StatusBadRequest, "message id missing")
		return "", "", false
	}
	return cid, id, true
}

// decodeSend resolves the caller and body of a send or reply request.
func decodeSend(ctx *fasthttp.RequestCtx, cid string) (store.SendParams, bool) {
	userID, name, ok := router.Caller(ctx)
	if !ok {
		return store.SendParams{}, false
	}
	var req sendRequest
	if err := router.DecodeJSON(ctx, &req); err != nil {
		router.WriteJSONError(ctx, fasthttp.StatusBadRequest, "invalid message payload: "+err.Error())
		return store.SendParams{}, false
	}
	if err := req.validate(); err != nil {
		router.WriteJSONError(ctx, fasthttp.StatusBadRequest, err.Error())
		return store.SendParams{}, false
	}
	return store.SendParams{
		ConversationID:    cid,
		ConversationKind:  req.ConversationKind,
		SenderID:          userID,
		SenderDisplayName: name,
		SenderAvatarRef:   req.SenderAvatarRef,
		Content:           req.Content,
		Kind:              req.Kind,
		Attachments:       req.Attachments,
		Mentions:          req.Mentions,
		Poll:              req.Poll,
		CrossModuleRef:    req.CrossModuleRef,
	}, true
}

func (a *API) SendMessage(ctx *fasthttp.RequestCtx) {
	cid, ok := conversationParam(ctx)
	if !ok {
		return
	}
	params, ok := decodeSend(ctx, cid)
	if !ok {
		return
	}
	router.WriteJSONStatus(ctx, fasthttp.StatusCreated, a.store.Send(params))
}

// live drops tombstones when ?live=true.
func live(ctx *fasthttp.RequestCtx, msgs []models.Message) []models.Message {
	if !router.QueryBool(ctx, "live") {
		return msgs
	}
	out := msgs[:0]
	for _, m := range msgs {
		if !m.IsDeleted {
			out = append(out, m)
		}
	}
	return out
}

func (a *API) ListMessages(ctx *fasthttp.RequestCtx) {
	cid, ok := conversationParam(ctx)
	if !ok {
		return
	}
	_ = router.WriteJSON(ctx, messagesResponse{Messages: live(ctx, a.store.GetForConversation(cid))})
}

func (a *API) ListGroups(ctx *fasthttp.RequestCtx) {
	cid, ok := conversationParam(ctx)
	if !ok {
		return
	}
	msgs := live(ctx, a.store.GetForConversation(cid))
	resp := groupsResponse{Groups: grouping.GroupMessages(msgs), DateBoundaries: []string{}}
	for _, d := range grouping.GetDateBoundaries(msgs) {
		resp.DateBoundaries = append(resp.DateBoundaries, grouping.DayKey(d))
	}
	if resp.Groups == nil {
		resp.Groups = []models.MessageGroup{}
	}
	_ = router.WriteJSON(ctx, resp)
}

func (a *API) ListPinned(ctx *fasthttp.RequestCtx) {
	cid, ok := conversationParam(ctx)
	if !ok {
		return
	}
	_ = router.WriteJSON(ctx, messagesResponse{Messages: a.store.GetPinned(cid)})
}

// lookup loads the message or answers 404.
func (a *API) lookup(ctx *fasthttp.RequestCtx, cid, id string) (models.Message, bool) {
	m, ok := a.store.Lookup(cid, id)
	if !ok {
		router.WriteJSONError(ctx, fasthttp.StatusNotFound, "message not found")
	}
	return m, ok
}

// respondMessage writes the current state of a message after a mutation.
func (a *API) respondMessage(ctx *fasthttp.RequestCtx, cid, id string) {
	if m, ok := a.lookup(ctx, cid, id); ok {
		_ = router.WriteJSON(ctx, m)
	}
}

func (a *API) GetMessage(ctx *fasthttp.RequestCtx) {
	cid, id, ok := messageParams(ctx)
	if !ok {
		return
	}
	a.respondMessage(ctx, cid, id)
}

func (a *API) EditMessage(ctx *fasthttp.RequestCtx) {
	cid, id, ok := messageParams(ctx)
	if !ok {
		return
	}
	var req editRequest
	if err := router.DecodeJSON(ctx, &req); err != nil {
		router.WriteJSONError(ctx, fasthttp.StatusBadRequest, "invalid edit payload")
		return
	}
	m, ok := a.lookup(ctx, cid, id)
	if !ok {
		return
	}
	if m.IsDeleted {
		router.WriteJSONError(ctx, fasthttp.StatusConflict, "message deleted")
		return
	}
	a.store.Edit(cid, id, req.Content)
	a.respondMessage(ctx, cid, id)
}

func (a *API) DeleteMessage(ctx *fasthttp.RequestCtx) {
	cid, id, ok := messageParams(ctx)
	if !ok {
		return
	}
	if _, ok := a.lookup(ctx, cid, id); !ok {
		return
	}
	a.store.Delete(cid, id)
	a.respondMessage(ctx, cid, id)
}

// Reply accepts replies to unknown parents; they are stored as orphans.
func (a *API) Reply(ctx *fasthttp.RequestCtx) {
	cid, id, ok := messageParams(ctx)
	if !ok {
		return
	}
	params, ok := decodeSend(ctx, cid)
	if !ok {
		return
	}
	router.WriteJSONStatus(ctx, fasthttp.StatusCreated, a.store.ReplyInThread(params, id))
}

func (a *API) ListReplies(ctx *fasthttp.RequestCtx) {
	cid, id, ok := messageParams(ctx)
	if !ok {
		return
	}
	_ = router.WriteJSON(ctx, messagesResponse{Messages: a.store.GetThread(cid, id)})
}

func (a *API) AddReaction(ctx *fasthttp.RequestCtx) {
	a.react(ctx, a.store.AddReaction)
}

func (a *API) RemoveReaction(ctx *fasthttp.RequestCtx) {
	a.react(ctx, a.store.RemoveReaction)
}

func (a *API) react(ctx *fasthttp.RequestCtx, apply func(cid, id, emoji, userID string) bool) {
	cid, id, ok := messageParams(ctx)
	if !ok {
		return
	}
	userID, _, ok := router.Caller(ctx)
	if !ok {
		return
	}
	var req reactionRequest
	if err := router.DecodeJSON(ctx, &req); err != nil {
		router.WriteJSONError(ctx, fasthttp.StatusBadRequest, "invalid reaction payload")
		return
	}
	if err := reactions.Validate(req.Emoji); err != nil {
		router.WriteJSONError(ctx, fasthttp.StatusBadRequest, err.Error())
		return
	}
	if !apply(cid, id, req.Emoji, userID) {
		router.WriteJSONError(ctx, fasthttp.StatusNotFound, "message not found")
		return
	}
	a.respondMessage(ctx, cid, id)
}

// flag builds a handler for pin and bookmark toggles.
func (a *API) flag(apply func(cid, id string) bool) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		cid, id, ok := messageParams(ctx)
		if !ok {
			return
		}
		if !apply(cid, id) {
			router.WriteJSONError(ctx, fasthttp.StatusNotFound, "message not found")
			return
		}
		a.respondMessage(ctx, cid, id)
	}
}

func (a *API) Vote(ctx *fasthttp.RequestCtx) {
	a.vote(ctx, a.store.VotePoll)
}

func (a *API) RetractVote(ctx *fasthttp.RequestCtx) {
	a.vote(ctx, a.store.RetractPollVote)
}

func (a *API) vote(ctx *fasthttp.RequestCtx, apply func(cid, id, optionID, userID string) bool) {
	cid, id, ok := messageParams(ctx)
	if !ok {
		return
	}
	userID, _, ok := router.Caller(ctx)
	if !ok {
		return
	}
	var req voteRequest
	if err := router.DecodeJSON(ctx, &req); err != nil || req.OptionID == "" {
		router.WriteJSONError(ctx, fasthttp.StatusBadRequest, "invalid vote payload")
		return
	}
	m, ok := a.lookup(ctx, cid, id)
	if !ok {
		return
	}
	if m.Poll == nil {
		router.WriteJSONError(ctx, fasthttp.StatusBadRequest, "message has no poll")
		return
	}
	if m.Poll.Option(req.OptionID) < 0 {
		router.WriteJSONError(ctx, fasthttp.StatusBadRequest, "unknown poll option")
		return
	}
	apply(cid, id, req.OptionID, userID)
	a.respondMessage(ctx, cid, id)
}
