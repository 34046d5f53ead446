package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/CrowderSoup/taskboard/board"
	"github.com/CrowderSoup/taskboard/services"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
)

// DataHandler exposes the board over HTTP. Every request becomes an intent
// run on the board loop.
type DataHandler struct {
	loop *services.Loop
	hub  *services.Hub
}

// NewDataHandler creates a handler running intents on loop and upgrading
// WebSocket clients onto hub.
func NewDataHandler(loop *services.Loop, hub *services.Hub) *DataHandler {
	return &DataHandler{
		loop: loop,
		hub:  hub,
	}
}

// Routes registers the board endpoints on r.
func (h *DataHandler) Routes(r *mux.Router) {
	r.HandleFunc("/api/board", h.GetBoard).Methods("GET")
	r.HandleFunc("/api/tasks", h.CreateTask).Methods("POST")
	r.HandleFunc("/api/tasks/delete-checked", h.DeleteChecked).Methods("POST")
	r.HandleFunc("/api/tasks/{id}", h.EditTask).Methods("PUT")
	r.HandleFunc("/api/tasks/{id}", h.DeleteTask).Methods("DELETE")
	r.HandleFunc("/api/tasks/{id}/toggle", h.ToggleTask).Methods("POST")
	r.HandleFunc("/api/tasks/{id}/completed", h.SetCompleted).Methods("PUT")
	r.HandleFunc("/api/tasks/{id}/move", h.MoveTask).Methods("POST")
	r.HandleFunc("/api/tasks/{id}/edit", h.BeginEdit).Methods("POST")
	r.HandleFunc("/api/edit", h.SubmitEdit).Methods("POST")
	r.HandleFunc("/api/edit", h.CancelEdit).Methods("DELETE")
	r.HandleFunc("/api/ws", h.HandleWebSocket)
}

type createRequest struct {
	Text     string `json:"text"`
	Datetime string `json:"datetime"`
	Priority string `json:"priority"`
}

type moveRequest struct {
	Column string `json:"column"`
}

type completedRequest struct {
	Completed bool `json:"completed"`
}

// GetBoard returns the current board view
func (h *DataHandler) GetBoard(w http.ResponseWriter, r *http.Request) {
	view, err := h.loop.Snapshot(r.Context())
	if err != nil {
		writeBoardError(w, err)
		return
	}
	writeView(w, http.StatusOK, view, nil)
}

// CreateTask adds a task to the To Do column
func (h *DataHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request format")
		return
	}

	var created board.Task
	view, err := h.loop.Do(r.Context(), func(ctx context.Context, b *board.Board) error {
		var err error
		created, err = b.Create(ctx, req.Text, req.Datetime, req.Priority)
		return err
	})
	if err != nil && !errors.Is(err, board.ErrSave) {
		writeBoardError(w, err)
		return
	}
	writeView(w, http.StatusCreated, view, map[string]any{"id": created.ID})
}

// ToggleTask flips a task's completed flag
func (h *DataHandler) ToggleTask(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	h.apply(w, r, func(ctx context.Context, b *board.Board) error {
		return b.ToggleComplete(ctx, id)
	})
}

// SetCompleted sets a task's completed flag from its checkbox
func (h *DataHandler) SetCompleted(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var req completedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request format")
		return
	}
	h.apply(w, r, func(ctx context.Context, b *board.Board) error {
		return b.SetCompleted(ctx, id, req.Completed)
	})
}

// MoveTask moves a task to the end of another column
func (h *DataHandler) MoveTask(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var req moveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request format")
		return
	}

	target, ok := board.ParseColumn(req.Column)
	if !ok {
		target = board.Column(req.Column)
	}
	h.apply(w, r, func(ctx context.Context, b *board.Board) error {
		return b.Move(ctx, id, target)
	})
}

// EditTask replaces a task's fields
func (h *DataHandler) EditTask(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var req board.EditInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request format")
		return
	}
	h.apply(w, r, func(ctx context.Context, b *board.Board) error {
		return b.Edit(ctx, id, req)
	})
}

// BeginEdit opens the edit session for a task and returns its values
func (h *DataHandler) BeginEdit(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var form board.EditForm
	view, err := h.loop.Do(r.Context(), func(ctx context.Context, b *board.Board) error {
		var err error
		form, err = b.BeginEdit(id)
		return err
	})
	if err != nil {
		writeBoardError(w, err)
		return
	}
	writeView(w, http.StatusOK, view, map[string]any{"form": form})
}

// SubmitEdit applies the edit form to the task being edited
func (h *DataHandler) SubmitEdit(w http.ResponseWriter, r *http.Request) {
	var req board.EditInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request format")
		return
	}
	h.apply(w, r, func(ctx context.Context, b *board.Board) error {
		return b.SubmitEdit(ctx, req)
	})
}

// CancelEdit closes the edit session
func (h *DataHandler) CancelEdit(w http.ResponseWriter, r *http.Request) {
	h.apply(w, r, func(ctx context.Context, b *board.Board) error {
		b.CancelEdit()
		return nil
	})
}

// DeleteTask removes a task
func (h *DataHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	h.apply(w, r, func(ctx context.Context, b *board.Board) error {
		return b.Delete(ctx, id)
	})
}

// DeleteChecked removes every completed task
func (h *DataHandler) DeleteChecked(w http.ResponseWriter, r *http.Request) {
	var deleted int
	view, err := h.loop.Do(r.Context(), func(ctx context.Context, b *board.Board) error {
		var err error
		deleted, err = b.DeleteAllChecked(ctx)
		return err
	})
	if err != nil && !errors.Is(err, board.ErrSave) {
		writeBoardError(w, err)
		return
	}
	writeView(w, http.StatusOK, view, map[string]any{"deleted": deleted})
}

// HandleWebSocket upgrades the HTTP connection to a WebSocket connection
func (h *DataHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			return true // CORS policy is enforced by the router
		},
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("Error upgrading to WebSocket: %v", err)
		return
	}

	client := services.NewClient(h.hub, conn)
	h.hub.Register(client)
	log.Printf("WebSocket client registered: %s", client.ID)

	// Start goroutines for reading and writing
	go client.WritePump()
	go client.ReadPump()

	view, err := h.loop.Snapshot(r.Context())
	if err != nil {
		log.Printf("Error reading board for new client: %v", err)
		return
	}
	h.hub.SendTo(client, services.WebSocketMessage{Type: services.MessageBoard, Data: view})
}

// apply runs intent and answers with the resulting view. A failed save is
// logged by the board and does not fail the request.
func (h *DataHandler) apply(w http.ResponseWriter, r *http.Request, intent services.Intent) {
	view, err := h.loop.Do(r.Context(), intent)
	if err != nil && !errors.Is(err, board.ErrSave) {
		writeBoardError(w, err)
		return
	}
	writeView(w, http.StatusOK, view, nil)
}
