package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"board-reviewer/internal/app"
	"board-reviewer/internal/domain"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

type WSHandler struct {
	reviewers *app.Registry
	course    string
	upgrader  websocket.Upgrader
}

// NewWSHandler serves reviewer sessions; course is used when the client does
// not name one.
func NewWSHandler(reviewers *app.Registry, course string) *WSHandler {
	return &WSHandler{
		reviewers: reviewers,
		course:    course,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type pickSubjectPayload struct {
	Next domain.NextView `json:"next"`
}

type selectSubjectPayload struct {
	Subject string `json:"subject"`
}

type answerPayload struct {
	QuestionID string `json:"questionId"`
	ChoiceID   string `json:"choiceId"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type messagePayload struct {
	Message string `json:"message"`
}

// ServeWS upgrades HTTP requests to websockets and drives the user's reviewer.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	course := r.URL.Query().Get("course")
	if course == "" {
		course = h.course
	}
	if userID == "" || course == "" {
		http.Error(w, "missing userId or course", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("ws upgrade failed")
		return
	}
	defer conn.Close()

	ctx, cancelCtx := context.WithCancel(r.Context())
	defer cancelCtx()

	reviewer := h.reviewers.Acquire(ctx, userID, course)
	defer h.reviewers.Release(userID, course)

	updates, unsubscribe := reviewer.Subscribe()
	defer unsubscribe()

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	updatesDone := make(chan struct{})
	var loads sync.WaitGroup

	emit := func(msg outboundMessage[any]) {
		select {
		case send <- msg:
		case <-writerDone:
		}
	}

	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				log.Debug().Err(err).Str("user", userID).Msg("ws write error")
				return
			}
		}
	}()

	go func() {
		defer close(updatesDone)
		for {
			select {
			case snap, ok := <-updates:
				if !ok {
					return
				}
				select {
				case send <- outboundMessage[any]{Type: "state", Payload: snap}:
				case <-writerDone:
					return
				case <-closeSignals:
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	log.Info().Str("user", userID).Str("course", course).Msg("reviewer connected")

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		switch inbound.Type {
		case "state":
			emit(outboundMessage[any]{Type: "state", Payload: reviewer.Snapshot()})
		case "pickSubject":
			var payload pickSubjectPayload
			if len(inbound.Payload) > 0 {
				if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
					emit(errorMessage("invalid pickSubject payload"))
					continue
				}
			}
			h.report(emit, reviewer.PickSubject(ctx, payload.Next))
		case "selectSubject":
			var payload selectSubjectPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil || payload.Subject == "" {
				emit(errorMessage("invalid selectSubject payload"))
				continue
			}
			// Loads run off the read loop so back/home can supersede them.
			loads.Add(1)
			go func() {
				defer loads.Done()
				h.report(emit, reviewer.SelectSubject(ctx, payload.Subject))
			}()
		case "subjectDashboard":
			loads.Add(1)
			go func() {
				defer loads.Done()
				h.report(emit, reviewer.OpenSubjectDashboard(ctx))
			}()
		case "practice":
			h.report(emit, reviewer.StartPractice(ctx))
		case "overallDashboard":
			h.report(emit, reviewer.OpenOverallDashboard(ctx))
		case "answer":
			var payload answerPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				emit(errorMessage("invalid answer payload"))
				continue
			}
			out, err := reviewer.Answer(ctx, payload.QuestionID, payload.ChoiceID)
			if err != nil {
				h.report(emit, err)
				continue
			}
			emit(outboundMessage[any]{Type: "answerResult", Payload: out})
		case "next":
			h.report(emit, reviewer.Next(ctx))
		case "restart":
			h.report(emit, reviewer.Restart(ctx))
		case "newSubject":
			h.report(emit, reviewer.SelectNewSubject(ctx))
		case "back":
			h.report(emit, reviewer.Back(ctx))
		case "home":
			reviewer.Home(ctx)
		case "checkIn":
			out, err := reviewer.CheckIn(ctx)
			if err != nil {
				h.report(emit, err)
				continue
			}
			emit(outboundMessage[any]{Type: "checkIn", Payload: out})
		default:
			emit(errorMessage("unsupported message type"))
		}
	}

	cancelCtx()
	loads.Wait()
	close(closeSignals)
	<-updatesDone
	close(send)
	<-writerDone
	log.Info().Str("user", userID).Str("course", course).Msg("reviewer disconnected")
}

// report turns an operation error into a client message. Fetch and parse
// failures are notices; superseded loads are silent.
func (h *WSHandler) report(emit func(outboundMessage[any]), err error) {
	if err == nil {
		return
	}
	var ferr *domain.FetchError
	switch {
	case errors.Is(err, domain.ErrStaleLoad):
		return
	case errors.Is(err, domain.ErrNoQuestions), errors.Is(err, domain.ErrSubjectNotFound):
		emit(noticeMessage(fmt.Sprintf("No questions found for %s", subjectOf(err))))
	case errors.As(err, &ferr):
		emit(noticeMessage("Failed to load questions"))
	case errors.Is(err, domain.ErrLoadInProgress):
		emit(noticeMessage("Questions are already loading"))
	default:
		emit(errorMessage(err.Error()))
	}
}

func subjectOf(err error) string {
	var ferr *domain.FetchError
	if errors.As(err, &ferr) {
		return ferr.Subject
	}
	var perr *domain.ParseError
	if errors.As(err, &perr) {
		return perr.Subject
	}
	return "this subject"
}

func errorMessage(msg string) outboundMessage[any] {
	return outboundMessage[any]{Type: "error", Payload: messagePayload{Message: msg}}
}

func noticeMessage(msg string) outboundMessage[any] {
	return outboundMessage[any]{Type: "notice", Payload: messagePayload{Message: msg}}
}
