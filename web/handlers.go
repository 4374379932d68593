package web

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/mrsingh-rishi/storybook-narrator/model"
	"github.com/mrsingh-rishi/storybook-narrator/output"
	"github.com/mrsingh-rishi/storybook-narrator/report"
	"github.com/mrsingh-rishi/storybook-narrator/session"
	"github.com/mrsingh-rishi/storybook-narrator/storage"
)

const (
	defaultListLimit = 20
	maxListLimit     = 200
	docxContentType  = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

func (s *Server) handleIndex(c *fiber.Ctx) error {
	var buf bytes.Buffer
	err := indexTmpl.Execute(&buf, map[string]any{
		"Language":    s.language,
		"MaxUploadMB": s.maxUpload >> 20,
	})
	if err != nil {
		return s.fail(c, fiber.StatusInternalServerError, err)
	}
	c.Type("html", "utf-8")
	return c.Send(buf.Bytes())
}

func (s *Server) handleUpload(c *fiber.Ctx) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "a PDF file is required in the \"file\" field"})
	}
	if !strings.EqualFold(filepath.Ext(fh.Filename), ".pdf") {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "only .pdf files are accepted"})
	}

	f, err := fh.Open()
	if err != nil {
		return s.fail(c, fiber.StatusBadRequest, err)
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return s.fail(c, fiber.StatusBadRequest, err)
	}

	run, err := s.sessions.Create(c.UserContext(), model.Document{Name: fh.Filename, Data: data})
	if err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": err.Error(), "run": run})
	}
	return c.Status(fiber.StatusCreated).JSON(run)
}

func (s *Server) handleStart(c *fiber.Ctx) error {
	run, err := s.sessions.Start(c.UserContext(), c.Params("id"))
	if err != nil {
		return s.fail(c, statusFor(err), err)
	}
	return c.Status(fiber.StatusAccepted).JSON(run)
}

func (s *Server) handleGet(c *fiber.Ctx) error {
	run, err := s.sessions.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return s.fail(c, statusFor(err), err)
	}
	return c.JSON(run)
}

func (s *Server) handleList(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", defaultListLimit)
	if limit <= 0 || limit > maxListLimit {
		limit = defaultListLimit
	}
	runs, err := s.sessions.List(c.UserContext(), limit)
	if err != nil {
		return s.fail(c, fiber.StatusInternalServerError, err)
	}
	if runs == nil {
		runs = []model.Run{}
	}
	return c.JSON(fiber.Map{"runs": runs})
}

func (s *Server) handleAudio(c *fiber.Ctx) error {
	run, err := s.sessions.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return s.fail(c, statusFor(err), err)
	}
	if run.AudioLocation == "" {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "run has no audio yet"})
	}

	rc, err := s.artifacts.Open(c.UserContext(), run.AudioLocation)
	if err != nil {
		return s.fail(c, statusFor(err), err)
	}
	c.Set(fiber.HeaderContentType, "audio/mpeg")
	c.Set(fiber.HeaderContentDisposition, `inline; filename="`+filepath.Base(run.AudioLocation)+`"`)
	return c.SendStream(rc)
}

func (s *Server) handleReport(c *fiber.Ctx) error {
	run, err := s.sessions.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return s.fail(c, statusFor(err), err)
	}

	dir, err := os.MkdirTemp("", "narrator-report-*")
	if err != nil {
		return s.fail(c, fiber.StatusInternalServerError, err)
	}
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, "report.docx")
	if err := report.Save(run, s.language, path); err != nil {
		return s.fail(c, fiber.StatusInternalServerError, err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return s.fail(c, fiber.StatusInternalServerError, err)
	}

	name := strings.TrimSuffix(run.Filename, filepath.Ext(run.Filename))
	if name == "" {
		name = run.ID
	}
	c.Set(fiber.HeaderContentType, docxContentType)
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+name+`.docx"`)
	return c.Send(data)
}

// handleEvents replays a run's events and then streams the rest until the
// run finishes or the page disconnects.
func (s *Server) handleEvents(conn *websocket.Conn) {
	id := conn.Params("id")
	log := s.logger.With().Str("run_id", id).Logger()

	replay, events, cancel, err := s.sessions.Subscribe(id)
	if err != nil {
		_ = conn.WriteJSON(fiber.Map{"error": err.Error()})
		conn.Close()
		return
	}
	defer cancel()

	out, err := output.NewWebSocketOutput(conn, events, log)
	if err != nil {
		log.Error().Err(err).Msg("create websocket output")
		return
	}
	for _, ev := range replay {
		if err := out.Send(ev); err != nil {
			out.Stop()
			return
		}
	}
	out.Start()

	// The page never sends anything; a read error means it went away.
	readerDone := make(chan struct{})
	go func() {
		defer close(readerDone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				out.Stop()
				return
			}
		}
	}()

	<-out.Done()
	out.Stop()
	<-readerDone
	log.Debug().Msg("event stream closed")
}

func (s *Server) fail(c *fiber.Ctx, status int, err error) error {
	if status >= fiber.StatusInternalServerError {
		s.logger.Error().Err(err).Str("path", c.Path()).Msg("request failed")
	}
	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, session.ErrNotFound), errors.Is(err, storage.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, session.ErrInvalidState):
		return fiber.StatusConflict
	default:
		return fiber.StatusInternalServerError
	}
}
