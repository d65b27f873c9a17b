package api

import (
	"errors"
	"net/http"

	"github.com/felixgeelhaar/academiax/internal/assistant"
	"github.com/felixgeelhaar/academiax/internal/domain"
	"github.com/felixgeelhaar/academiax/internal/events"
	"github.com/felixgeelhaar/academiax/internal/metrics"
)

type chatRequest struct {
	Message string `json:"message"`
}

type chatResponse struct {
	Success bool   `json:"success"`
	Reply   string `json:"reply"`
}

func (r *Router) handleChat(w http.ResponseWriter, req *http.Request) {
	var body chatRequest
	if err := decodeInto(w, req, &body); err != nil {
		BadRequest(w, req, "invalid request body")
		return
	}

	reply, err := r.app.Assistant.Chat(req.Context(), body.Message)
	if errors.Is(err, assistant.ErrMessageRequired) {
		BadRequest(w, req, "Message is required")
		return
	}
	if err != nil {
		r.app.Metrics.RecordCompletion(metrics.KindChat, metrics.OutcomeError)
		Fail(w, req, err, "Chat completion failed")
		return
	}
	r.app.Metrics.RecordCompletion(metrics.KindChat, metrics.OutcomeSuccess)

	WriteJSON(w, http.StatusOK, chatResponse{Success: true, Reply: reply})
}

type generateRequest struct {
	Topic string `json:"topic"`
}

func (r *Router) handleGenerateQuestions(w http.ResponseWriter, req *http.Request) {
	var body generateRequest
	if err := decodeInto(w, req, &body); err != nil {
		BadRequest(w, req, "invalid request body")
		return
	}

	gen, err := r.app.Assistant.GenerateQuestions(req.Context(), body.Topic)
	if errors.Is(err, assistant.ErrTopicRequired) {
		BadRequest(w, req, "Topic required")
		return
	}
	if err != nil {
		r.app.Metrics.RecordCompletion(metrics.KindQuestions, metrics.OutcomeError)
		Fail(w, req, err, "Question generation failed")
		return
	}
	r.app.Metrics.RecordCompletion(metrics.KindQuestions, metrics.OutcomeSuccess)
	r.publish(req, domain.CollectionQuestions, events.ActionGenerated, gen.ID, "")

	OK(w, gen.Questions)
}

func (r *Router) handleListQuestions(w http.ResponseWriter, req *http.Request) {
	sets, err := r.app.Assistant.History(req.Context(), req.URL.Query().Get(domain.FieldTopic))
	if err != nil {
		Fail(w, req, err, "Server error")
		return
	}
	OK(w, orEmpty(sets))
}
