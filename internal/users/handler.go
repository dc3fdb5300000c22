package users

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/campus-hub/campus-hub/internal/authz"
	"github.com/campus-hub/campus-hub/internal/roles"
	"github.com/campus-hub/campus-hub/internal/shared"
	"github.com/campus-hub/campus-hub/internal/view"
)

// Handler serves the user management pages.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	roles     *roles.Service
	templates *view.Engine
	csrf      *shared.CSRFManager
	guard     authz.Middleware
	validator *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, roleSvc *roles.Service, templates *view.Engine, csrf *shared.CSRFManager, guard authz.Middleware) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		roles:     roleSvc,
		templates: templates,
		csrf:      csrf,
		guard:     guard,
		validator: validator.New(),
	}
}

// MountRoutes registers user management routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequireAuthenticated)
		r.Get("/", h.list)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequireOwner(authz.ResourceUsers, authz.ActionShow, "userID"))
		r.Get("/{userID}", h.show)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.guard.Require(authz.ResourceUsers, authz.ActionCreate))
		r.Get("/new", h.showCreateForm)
		r.Post("/", h.create)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequireOwner(authz.ResourceUsers, authz.ActionEdit, "userID"))
		r.Get("/{userID}/edit", h.showEditForm)
		r.Post("/{userID}", h.update)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.guard.Require(authz.ResourceUsers, authz.ActionDelete))
		r.Post("/{userID}/delete", h.remove)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.guard.Require(authz.ResourceUsers, authz.ActionSwitchRole))
		r.Post("/{userID}/role", h.switchRole)
	})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	list, pagination, err := h.service.List(r.Context(), page)
	if err != nil {
		h.logger.Error("list users", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	allRoles, err := h.roles.List(r.Context())
	if err != nil {
		h.logger.Error("list roles", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	h.render(w, r, "pages/users/index.html", map[string]any{
		"Users":      list,
		"Roles":      allRoles,
		"Pagination": pagination,
	}, http.StatusOK)
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	user, ok := h.loadUser(w, r)
	if !ok {
		return
	}
	h.render(w, r, "pages/users/show.html", map[string]any{"User": user}, http.StatusOK)
}

type userForm struct {
	Login      string `validate:"required"`
	Password   string `validate:"required"`
	LastName   string `validate:"required,max=100"`
	FirstName  string `validate:"required,max=100"`
	MiddleName string `validate:"max=100"`
	RoleID     int64  `validate:"required"`
}

func (h *Handler) showCreateForm(w http.ResponseWriter, r *http.Request) {
	allRoles, err := h.roles.List(r.Context())
	if err != nil {
		h.logger.Error("list roles", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	h.render(w, r, "pages/users/new.html", map[string]any{
		"Roles":  allRoles,
		"Errors": map[string]string{},
	}, http.StatusOK)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	roleID, _ := strconv.ParseInt(r.PostFormValue("role_id"), 10, 64)
	form := userForm{
		Login:      r.PostFormValue("login"),
		Password:   r.PostFormValue("password"),
		LastName:   r.PostFormValue("last_name"),
		FirstName:  r.PostFormValue("first_name"),
		MiddleName: r.PostFormValue("middle_name"),
		RoleID:     roleID,
	}

	formErrors := make(map[string]string)
	if err := h.validator.Struct(form); err != nil {
		var fieldErrors validator.ValidationErrors
		if errors.As(err, &fieldErrors) {
			for _, fieldErr := range fieldErrors {
				formErrors[fieldErr.Field()] = "Поле не может быть пустым"
			}
		}
	}
	if len(formErrors) == 0 {
		user, err := h.service.Create(r.Context(), CreateUserInput{
			Login:      form.Login,
			Password:   form.Password,
			LastName:   form.LastName,
			FirstName:  form.FirstName,
			MiddleName: form.MiddleName,
			RoleID:     form.RoleID,
		})
		if err == nil {
			h.redirectWithFlash(w, r, "/users", "success", fmt.Sprintf("Пользователь %s успешно создан.", user.Login))
			return
		}
		var ve *shared.ValidationError
		if errors.As(err, &ve) {
			formErrors[ve.Field] = ve.Message
		} else {
			h.logger.Error("create user", slog.Any("error", err))
			formErrors["general"] = shared.UserSafeMessage(err)
		}
	}

	allRoles, _ := h.roles.List(r.Context())
	h.render(w, r, "pages/users/new.html", map[string]any{
		"Roles":  allRoles,
		"Form":   form,
		"Errors": formErrors,
	}, http.StatusUnprocessableEntity)
}

func (h *Handler) showEditForm(w http.ResponseWriter, r *http.Request) {
	user, ok := h.loadUser(w, r)
	if !ok {
		return
	}
	h.render(w, r, "pages/users/edit.html", map[string]any{
		"User":   user,
		"Errors": map[string]string{},
	}, http.StatusOK)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	user, ok := h.loadUser(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	err := h.service.Update(r.Context(), user.ID,
		r.PostFormValue("last_name"), r.PostFormValue("first_name"), r.PostFormValue("middle_name"))
	if err != nil {
		var ve *shared.ValidationError
		if errors.As(err, &ve) {
			h.render(w, r, "pages/users/edit.html", map[string]any{
				"User":   user,
				"Errors": map[string]string{ve.Field: ve.Message},
			}, http.StatusUnprocessableEntity)
			return
		}
		h.logger.Error("update user", slog.Any("error", err))
		h.redirectWithFlash(w, r, "/users", "danger", shared.UserSafeMessage(err))
		return
	}
	h.redirectWithFlash(w, r, fmt.Sprintf("/users/%d", user.ID), "success", "Данные пользователя обновлены.")
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	actor := authz.ActorFromContext(r.Context())
	if err := h.service.Delete(r.Context(), userID, actor.ID); err != nil {
		switch {
		case errors.Is(err, ErrSelfDelete):
			h.redirectWithFlash(w, r, "/users", "danger", "Нельзя удалить собственную учётную запись.")
		case errors.Is(err, shared.ErrNotFound):
			http.NotFound(w, r)
		default:
			h.logger.Error("delete user", slog.Any("error", err))
			h.redirectWithFlash(w, r, "/users", "danger", shared.UserSafeMessage(err))
		}
		return
	}
	h.redirectWithFlash(w, r, "/users", "success", "Пользователь удалён.")
}

func (h *Handler) switchRole(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	roleID, err := strconv.ParseInt(r.PostFormValue("role_id"), 10, 64)
	if err != nil {
		h.redirectWithFlash(w, r, "/users", "danger", "Некорректная роль.")
		return
	}
	if err := h.service.SwitchRole(r.Context(), userID, roleID); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		h.logger.Error("switch role", slog.Any("error", err))
		h.redirectWithFlash(w, r, "/users", "danger", shared.UserSafeMessage(err))
		return
	}
	h.redirectWithFlash(w, r, "/users", "success", "Роль пользователя изменена.")
}

func (h *Handler) loadUser(w http.ResponseWriter, r *http.Request) (*User, bool) {
	userID, err := strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
	if err != nil {
		http.NotFound(w, r)
		return nil, false
	}
	user, err := h.service.Get(r.Context(), userID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			http.NotFound(w, r)
			return nil, false
		}
		h.logger.Error("load user", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return nil, false
	}
	return user, true
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, template string, data map[string]any, status int) {
	sess := shared.SessionFromContext(r.Context())
	csrfToken, _ := h.csrf.EnsureToken(r.Context(), sess)
	var flash *shared.FlashMessage
	if sess != nil {
		flash = sess.PopFlash()
	}
	viewData := view.TemplateData{Title: "Пользователи", CSRFToken: csrfToken, Flash: flash, CurrentPath: r.URL.Path, Actor: authz.ActorFromContext(r.Context()), Data: data}
	w.WriteHeader(status)
	if err := h.templates.Render(w, template, viewData); err != nil {
		h.logger.Error("render template", slog.Any("error", err))
	}
}

func (h *Handler) redirectWithFlash(w http.ResponseWriter, r *http.Request, location, kind, message string) {
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		sess.AddFlash(shared.FlashMessage{Kind: kind, Message: message})
	}
	http.Redirect(w, r, location, http.StatusSeeOther)
}
