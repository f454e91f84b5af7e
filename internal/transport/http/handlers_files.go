package http

import (
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"filehost/internal/domain"
	"filehost/internal/service"
)

// Uploads are buffered in memory; this bounds a single request.
const maxUploadBytes = 32 << 20

func (s *Server) handleUploadPage(w http.ResponseWriter, r *http.Request) {
	st, ok := s.requireUser(w, r)
	if !ok {
		return
	}
	files, err := s.files.ListByAuthor(r.Context(), st.User.ID)
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	s.render.Render(w, http.StatusOK, "upload.html", map[string]any{"Files": files})
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	st, ok := s.requireUser(w, r)
	if !ok {
		return
	}
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		s.renderUploadError(w, r, st, domain.ErrMissingField)
		return
	}

	part, header, err := r.FormFile("file")
	if err != nil {
		s.renderUploadError(w, r, st, domain.ErrMissingField)
		return
	}
	defer part.Close()

	content, err := io.ReadAll(part)
	if err != nil {
		s.serverError(w, r, err)
		return
	}

	name := r.PostFormValue("name")
	if name == "" {
		name = header.Filename
	}

	file, err := s.files.Upload(
		r.Context(),
		st.User.ID,
		name,
		r.PostFormValue("description"),
		header.Header.Get("Content-Type"),
		r.PostFormValue("public") != "",
		content,
	)
	if errors.Is(err, domain.ErrMissingField) {
		s.renderUploadError(w, r, st, err)
		return
	}
	if errors.Is(err, domain.ErrUserNotFound) {
		http.Redirect(w, r, service.LoginPath, http.StatusSeeOther)
		return
	}
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	http.Redirect(w, r, "/files/"+file.Token, http.StatusSeeOther)
}

func (s *Server) handleUploadBulk(w http.ResponseWriter, r *http.Request) {
	st, ok := s.requireUser(w, r)
	if !ok {
		return
	}
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		s.renderUploadError(w, r, st, domain.ErrMissingField)
		return
	}
	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		s.renderUploadError(w, r, st, domain.ErrMissingField)
		return
	}
	public := r.PostFormValue("public") != ""

	for _, header := range headers {
		part, err := header.Open()
		if err != nil {
			s.serverError(w, r, err)
			return
		}
		content, err := io.ReadAll(part)
		part.Close()
		if err != nil {
			s.serverError(w, r, err)
			return
		}
		_, err = s.files.Upload(
			r.Context(),
			st.User.ID,
			header.Filename,
			"",
			header.Header.Get("Content-Type"),
			public,
			content,
		)
		if errors.Is(err, domain.ErrUserNotFound) {
			http.Redirect(w, r, service.LoginPath, http.StatusSeeOther)
			return
		}
		if err != nil {
			s.serverError(w, r, err)
			return
		}
	}
	http.Redirect(w, r, "/files/upload", http.StatusSeeOther)
}

func (s *Server) handleGetFile(w http.ResponseWriter, r *http.Request) {
	st := stateFrom(r.Context())
	file, err := s.files.GetByToken(r.Context(), chi.URLParam(r, "token"), st.User)
	if errors.Is(err, domain.ErrFileNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		s.serverError(w, r, err)
		return
	}

	contentType := file.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `inline; filename="`+file.Name+`"`)
	_, _ = w.Write(file.Content)
}

func (s *Server) renderUploadError(w http.ResponseWriter, r *http.Request, st *requestState, uploadErr error) {
	files, err := s.files.ListByAuthor(r.Context(), st.User.ID)
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	s.render.Render(w, http.StatusOK, "upload.html", map[string]any{
		"Error": errorMessage(uploadErr),
		"Files": files,
	})
}

// requireUser redirects anonymous visitors to login. The gate already
// resolved authenticated sessions; this is the route-level check it leaves
// to handlers.
func (s *Server) requireUser(w http.ResponseWriter, r *http.Request) (*requestState, bool) {
	st := stateFrom(r.Context())
	if st.User == nil {
		http.Redirect(w, r, service.LoginPath, http.StatusSeeOther)
		return nil, false
	}
	return st, true
}
