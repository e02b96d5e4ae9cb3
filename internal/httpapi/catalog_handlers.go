package httpapi

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"libris.dev/internal/audit"
	"libris.dev/internal/auth"
	"libris.dev/internal/catalog"
)

type bookRequest struct {
	Title       string `json:"title" validate:"required"`
	Author      string `json:"author" validate:"required"`
	Description string `json:"description"`
}

func (a *API) handleBooks(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/books/")
	if path == "" {
		switch r.Method {
		case http.MethodGet:
			a.listBooks(w, r)
		case http.MethodPost:
			a.createBook(w, r)
		default:
			methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
		}
		return
	}

	if strings.Contains(path, "/") {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	id, err := strconv.ParseInt(path, 10, 64)
	if err != nil {
		writeError(w, r, http.StatusNotFound, "book not found")
		return
	}

	switch r.Method {
	case http.MethodGet:
		a.getBook(w, r, id)
	case http.MethodPut:
		a.updateBook(w, r, id)
	case http.MethodDelete:
		a.deleteBook(w, r, id)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPut, http.MethodDelete)
	}
}

// requireLibrarianParam gates catalog mutations on the role passed as an
// unauthenticated query parameter. This mirrors the upstream contract as
// documented: the role claim is taken at face value and is NOT tied to the
// bearer-token identity used elsewhere.
func (a *API) requireLibrarianParam(w http.ResponseWriter, r *http.Request) bool {
	role, err := auth.ParseRole(r.URL.Query().Get("role"))
	if err != nil {
		writeError(w, r, http.StatusForbidden, "librarian role required")
		return false
	}
	if err := a.auth.Authorize(role, auth.RoleLibrarian); err != nil {
		handleAuthError(w, r, err)
		return false
	}
	return true
}

func (a *API) createBook(w http.ResponseWriter, r *http.Request) {
	if !a.requireLibrarianParam(w, r) {
		return
	}

	var req bookRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if fields := validateStruct(&req); len(fields) > 0 {
		writeValidationError(w, r, fields)
		return
	}

	book, err := a.books.Insert(r.Context(), catalog.Book{
		Title:       req.Title,
		Author:      req.Author,
		Description: req.Description,
	})
	if err != nil {
		handleCatalogError(w, r, err)
		return
	}

	a.auditBook(r, "catalog.book.create", book.ID)
	writeJSON(w, http.StatusOK, book)
}

func (a *API) listBooks(w http.ResponseWriter, r *http.Request) {
	books, err := a.books.List(r.Context())
	if err != nil {
		handleCatalogError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, books)
}

func (a *API) getBook(w http.ResponseWriter, r *http.Request, id int64) {
	book, err := a.books.Get(r.Context(), id)
	if err != nil {
		handleCatalogError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, book)
}

func (a *API) updateBook(w http.ResponseWriter, r *http.Request, id int64) {
	if !a.requireLibrarianParam(w, r) {
		return
	}

	var req bookRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if fields := validateStruct(&req); len(fields) > 0 {
		writeValidationError(w, r, fields)
		return
	}

	book, err := a.books.Update(r.Context(), id, catalog.Book{
		Title:       req.Title,
		Author:      req.Author,
		Description: req.Description,
	})
	if err != nil {
		handleCatalogError(w, r, err)
		return
	}

	a.auditBook(r, "catalog.book.update", id)
	writeJSON(w, http.StatusOK, book)
}

func (a *API) deleteBook(w http.ResponseWriter, r *http.Request, id int64) {
	if !a.requireLibrarianParam(w, r) {
		return
	}

	if err := a.books.Delete(r.Context(), id); err != nil {
		handleCatalogError(w, r, err)
		return
	}

	a.auditBook(r, "catalog.book.delete", id)
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) auditBook(r *http.Request, event string, id int64) {
	_ = audit.LogEvent(r.Context(), event, map[string]any{
		"book_id": id,
		"role":    r.URL.Query().Get("role"),
	})
}

func handleCatalogError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, catalog.ErrInvalidInput):
		writeError(w, r, http.StatusBadRequest, "title and author are required")
	case errors.Is(err, catalog.ErrNotFound):
		writeError(w, r, http.StatusNotFound, "book not found")
	default:
		writeError(w, r, http.StatusInternalServerError, "internal error")
	}
}
