package web

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"gtodo/internal/view"
)

type pageData struct {
	State   view.State
	Counts  view.Counts
	Version string
}

// TaskResponse is the JSON form of a task.
type TaskResponse struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Completed bool      `json:"completed"`
	CreatedAt time.Time `json:"createdAt"`
}

// CountsResponse is the JSON form of the counters.
type CountsResponse struct {
	Total     int `json:"total"`
	Completed int `json:"completed"`
	Pending   int `json:"pending"`
}

// ListResponse is returned by GET /api/tasks.
type ListResponse struct {
	Tasks  []TaskResponse `json:"tasks"`
	Counts CountsResponse `json:"counts"`
	Error  string         `json:"error,omitempty"`
}

func (s *Server) index(c *gin.Context) {
	st := s.view.Snapshot()
	c.HTML(http.StatusOK, "index.html", pageData{
		State:   st,
		Counts:  st.Counts(),
		Version: s.version,
	})
}

// redirectHome finishes a form post. 303 makes the browser follow with GET.
func redirectHome(c *gin.Context) {
	c.Redirect(http.StatusSeeOther, "/")
}

// fail maps view errors that are the caller's fault onto HTTP statuses.
// Store failures are already on the banner or in the log, so the browser
// is sent back to the list.
func fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, view.ErrUnknownTask):
		c.String(http.StatusNotFound, err.Error())
	case errors.Is(err, view.ErrBusy):
		c.String(http.StatusConflict, err.Error())
	default:
		redirectHome(c)
	}
}

func (s *Server) reload(c *gin.Context) {
	_ = s.view.Load(c.Request.Context())
	redirectHome(c)
}

func (s *Server) createTask(c *gin.Context) {
	if err := s.view.SubmitText(c.Request.Context(), c.PostForm("text")); err != nil {
		fail(c, err)
		return
	}
	redirectHome(c)
}

func (s *Server) toggleTask(c *gin.Context) {
	if err := s.view.Toggle(c.Request.Context(), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	redirectHome(c)
}

func (s *Server) startEdit(c *gin.Context) {
	if err := s.view.StartEdit(c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	redirectHome(c)
}

func (s *Server) saveEdit(c *gin.Context) {
	if err := s.view.SaveEditText(c.Request.Context(), c.Param("id"), c.PostForm("text")); err != nil {
		fail(c, err)
		return
	}
	redirectHome(c)
}

func (s *Server) cancelEdit(c *gin.Context) {
	s.view.CancelEdit()
	redirectHome(c)
}

func (s *Server) deleteTask(c *gin.Context) {
	if err := s.view.Delete(c.Request.Context(), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	redirectHome(c)
}

func (s *Server) apiTasks(c *gin.Context) {
	st := s.view.Snapshot()
	counts := st.Counts()

	resp := ListResponse{
		Tasks: make([]TaskResponse, 0, len(st.Tasks)),
		Counts: CountsResponse{
			Total:     counts.Total,
			Completed: counts.Completed,
			Pending:   counts.Pending,
		},
		Error: st.Err,
	}
	for _, t := range st.Tasks {
		resp.Tasks = append(resp.Tasks, TaskResponse{
			ID:        t.ID,
			Text:      t.Text,
			Completed: t.Completed,
			CreatedAt: t.CreatedAt,
		})
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "version": s.version})
}
