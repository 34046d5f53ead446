package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/CrowderSoup/taskboard/board"
	"github.com/CrowderSoup/taskboard/database"
	"github.com/CrowderSoup/taskboard/handlers"
	"github.com/CrowderSoup/taskboard/services"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
)

var handlerNow = time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

type apiResponse struct {
	Status  string         `json:"status"`
	Data    board.View     `json:"data"`
	ID      string         `json:"id"`
	Deleted int            `json:"deleted"`
	Form    board.EditForm `json:"form"`
	Error   string         `json:"error"`
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	quiet := log.New(io.Discard, "", 0)
	n := 0
	b := board.New(database.NewTaskStore(database.NewMemoryKV(), quiet),
		board.WithClock(func() time.Time { return handlerNow }),
		board.WithLocation(time.UTC),
		board.WithIDGenerator(func() string { n++; return fmt.Sprintf("task-%d", n) }),
		board.WithLogger(quiet),
	)

	hub := services.NewHub()
	loop := services.NewLoop(b, hub, time.Hour)
	hub.SetRefresher(loop.Refresher())

	ctx, cancel := context.WithCancel(context.Background())
	hubDone := make(chan struct{})
	loopDone := make(chan struct{})
	go func() { hub.Run(ctx); close(hubDone) }()
	go func() { loop.Run(ctx); close(loopDone) }()

	r := mux.NewRouter()
	r.Use(handlers.Logging(quiet))
	r.HandleFunc("/health", handlers.Health).Methods("GET")
	handlers.NewDataHandler(loop, hub).Routes(r)

	srv := httptest.NewServer(r)
	t.Cleanup(func() {
		srv.Close()
		cancel()
		<-hubDone
		<-loopDone
	})
	return srv
}

func call(t *testing.T, srv *httptest.Server, method, path, body string) (int, apiResponse) {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, srv.URL+path, rd)
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	var out apiResponse
	if len(bytes.TrimSpace(raw)) > 0 {
		if err := json.Unmarshal(raw, &out); err != nil {
			t.Fatalf("%s %s: bad body %s: %v", method, path, raw, err)
		}
	}
	return resp.StatusCode, out
}

func createTask(t *testing.T, srv *httptest.Server, text string) string {
	t.Helper()
	body := fmt.Sprintf(`{"text":%q,"datetime":"2026-03-15T09:00","priority":"Medium"}`, text)
	status, resp := call(t, srv, "POST", "/api/tasks", body)
	if status != http.StatusCreated {
		t.Fatalf("create %q: status %d (%s)", text, status, resp.Error)
	}
	return resp.ID
}

func columnIDs(v board.View, col board.Column) []string {
	for _, c := range v.Columns {
		if c.ID != col {
			continue
		}
		ids := make([]string, 0, len(c.Tasks))
		for _, task := range c.Tasks {
			ids = append(ids, task.ID)
		}
		return ids
	}
	return nil
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t)
	resp, err := http.Get(srv.URL + "/health")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d", resp.StatusCode)
	}
}

func TestCreateAndGetBoard(t *testing.T) {
	srv := newTestServer(t)

	id := createTask(t, srv, "Write report")
	if id != "task-1" {
		t.Errorf("id = %q", id)
	}

	status, resp := call(t, srv, "GET", "/api/board", "")
	if status != http.StatusOK || resp.Status != "success" {
		t.Fatalf("get board: %d %+v", status, resp)
	}
	if len(resp.Data.Columns) != 3 {
		t.Fatalf("expected 3 columns, got %d", len(resp.Data.Columns))
	}
	todo := resp.Data.Columns[0]
	if todo.Title != "To Do" || len(todo.Tasks) != 1 {
		t.Fatalf("unexpected todo column %+v", todo)
	}
	if got := todo.Tasks[0].Countdown; got != "1d 0h 0m" {
		t.Errorf("countdown = %q", got)
	}
}

func TestCreateRejectsMissingFields(t *testing.T) {
	srv := newTestServer(t)

	status, resp := call(t, srv, "POST", "/api/tasks", `{"text":"","datetime":"2026-03-15T09:00"}`)
	if status != http.StatusBadRequest || resp.Error == "" {
		t.Errorf("empty text: %d %+v", status, resp)
	}
	status, _ = call(t, srv, "POST", "/api/tasks", `{"text":`)
	if status != http.StatusBadRequest {
		t.Errorf("bad json: %d", status)
	}

	_, resp = call(t, srv, "GET", "/api/board", "")
	if n := len(resp.Data.Columns[0].Tasks); n != 0 {
		t.Errorf("rejected creates left %d tasks", n)
	}
}

func TestToggleMoveAndDelete(t *testing.T) {
	srv := newTestServer(t)
	a := createTask(t, srv, "A")
	b := createTask(t, srv, "B")

	status, resp := call(t, srv, "POST", "/api/tasks/"+a+"/toggle", "")
	if status != http.StatusOK || !resp.Data.BulkDeleteEnabled {
		t.Fatalf("toggle: %d bulk=%v", status, resp.Data.BulkDeleteEnabled)
	}

	status, resp = call(t, srv, "POST", "/api/tasks/"+a+"/move", `{"column":"done"}`)
	if status != http.StatusOK {
		t.Fatalf("move: %d %s", status, resp.Error)
	}
	if got := columnIDs(resp.Data, board.ColumnDone); len(got) != 1 || got[0] != a {
		t.Errorf("done column = %v", got)
	}
	if !resp.Data.Columns[2].Tasks[0].Completed {
		t.Error("move cleared the completed flag")
	}

	status, resp = call(t, srv, "PUT", "/api/tasks/"+b+"/completed", `{"completed":true}`)
	if status != http.StatusOK || !resp.Data.Columns[0].Tasks[0].Completed {
		t.Fatalf("set completed: %d", status)
	}

	status, resp = call(t, srv, "POST", "/api/tasks/delete-checked", "")
	if status != http.StatusOK || resp.Deleted != 2 {
		t.Fatalf("delete checked: %d deleted=%d", status, resp.Deleted)
	}
	if resp.Data.BulkDeleteEnabled {
		t.Error("bulk delete still enabled on an empty board")
	}

	c := createTask(t, srv, "C")
	status, resp = call(t, srv, "DELETE", "/api/tasks/"+c, "")
	if status != http.StatusOK || len(resp.Data.Columns[0].Tasks) != 0 {
		t.Errorf("delete: %d %+v", status, resp.Data)
	}
}

func TestErrorStatuses(t *testing.T) {
	srv := newTestServer(t)
	id := createTask(t, srv, "A")

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		want   int
	}{
		{"toggle unknown", "POST", "/api/tasks/nope/toggle", "", http.StatusNotFound},
		{"delete unknown", "DELETE", "/api/tasks/nope", "", http.StatusNotFound},
		{"move unknown column", "POST", "/api/tasks/" + id + "/move", `{"column":"archive"}`, http.StatusBadRequest},
		{"move bad json", "POST", "/api/tasks/" + id + "/move", `[`, http.StatusBadRequest},
		{"submit without session", "POST", "/api/edit", `{"text":"x"}`, http.StatusBadRequest},
		{"begin edit unknown", "POST", "/api/tasks/nope/edit", "", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, resp := call(t, srv, tt.method, tt.path, tt.body)
			if status != tt.want {
				t.Errorf("status = %d, want %d", status, tt.want)
			}
			if resp.Error == "" {
				t.Error("expected an error message")
			}
		})
	}
}

func TestEditSession(t *testing.T) {
	srv := newTestServer(t)
	id := createTask(t, srv, "Draft")

	status, resp := call(t, srv, "POST", "/api/tasks/"+id+"/edit", "")
	if status != http.StatusOK {
		t.Fatalf("begin edit: %d", status)
	}
	if resp.Form.Text != "Draft" || resp.Form.Column != board.ColumnTodo {
		t.Errorf("form = %+v", resp.Form)
	}
	if resp.Data.Editing != id {
		t.Errorf("editing = %q", resp.Data.Editing)
	}

	body := `{"text":"Final","datetime":"2026-03-16T09:00","priority":"Low","column":"in-progress-list"}`
	status, resp = call(t, srv, "POST", "/api/edit", body)
	if status != http.StatusOK {
		t.Fatalf("submit edit: %d %s", status, resp.Error)
	}
	if resp.Data.Editing != "" {
		t.Errorf("session still open for %q", resp.Data.Editing)
	}
	moved := resp.Data.Columns[1].Tasks
	if len(moved) != 1 || moved[0].Text != "Final" || moved[0].Priority != board.PriorityLow {
		t.Errorf("in progress column = %+v", moved)
	}

	call(t, srv, "POST", "/api/tasks/"+id+"/edit", "")
	status, resp = call(t, srv, "DELETE", "/api/edit", "")
	if status != http.StatusOK || resp.Data.Editing != "" {
		t.Errorf("cancel edit: %d editing=%q", status, resp.Data.Editing)
	}
}

func TestEditTaskDirect(t *testing.T) {
	srv := newTestServer(t)
	id := createTask(t, srv, "Old")

	status, resp := call(t, srv, "PUT", "/api/tasks/"+id, `{"text":"New","datetime":"2026-03-14T09:00","priority":"High"}`)
	if status != http.StatusOK {
		t.Fatalf("edit: %d %s", status, resp.Error)
	}
	task := resp.Data.Columns[0].Tasks[0]
	if task.Text != "New" || task.Countdown != board.ExpiredLabel || !task.Expired {
		t.Errorf("edited task = %+v", task)
	}
}

func readBoard(t *testing.T, conn *websocket.Conn) board.View {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg struct {
		Type string     `json:"type"`
		Data board.View `json:"data"`
	}
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read websocket: %v", err)
	}
	if msg.Type != services.MessageBoard {
		t.Fatalf("expected board message, got %q", msg.Type)
	}
	return msg.Data
}

func TestWebSocketReceivesBoardUpdates(t *testing.T) {
	srv := newTestServer(t)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	initial := readBoard(t, conn)
	if len(initial.Columns) != 3 || len(initial.Columns[0].Tasks) != 0 {
		t.Fatalf("unexpected initial board %+v", initial)
	}

	createTask(t, srv, "Pushed")
	pushed := readBoard(t, conn)
	if got := columnIDs(pushed, board.ColumnTodo); len(got) != 1 {
		t.Fatalf("pushed todo column = %v", got)
	}

	if err := conn.WriteJSON(services.WebSocketMessage{Type: services.MessageRefresh}); err != nil {
		t.Fatal(err)
	}
	refreshed := readBoard(t, conn)
	if len(refreshed.Columns[0].Tasks) != 1 {
		t.Errorf("refresh returned %+v", refreshed)
	}
}
