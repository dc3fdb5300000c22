package courses

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"golang.org/x/sync/singleflight"

	"github.com/campus-hub/campus-hub/internal/authz"
	"github.com/campus-hub/campus-hub/internal/reviews"
	"github.com/campus-hub/campus-hub/internal/shared"
	"github.com/campus-hub/campus-hub/internal/view"
)

const recentReviewsOnShowPage = 5

// Handler serves the course catalog pages.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	reviews   *reviews.Service
	templates *view.Engine
	csrf      *shared.CSRFManager
	sessions  *shared.SessionManager
	guard     authz.Middleware
	validator *validator.Validate
	flight    singleflight.Group
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, reviewSvc *reviews.Service, templates *view.Engine, csrf *shared.CSRFManager, sessions *shared.SessionManager, guard authz.Middleware) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		reviews:   reviewSvc,
		templates: templates,
		csrf:      csrf,
		sessions:  sessions,
		guard:     guard,
		validator: validator.New(),
	}
}

// MountRoutes registers catalog routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.guard.Require(authz.ResourceCourses, authz.ActionShow))
		r.Get("/", h.list)
		r.Get("/{courseID}", h.show)
		r.Get("/{courseID}/reviews", h.listReviews)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.guard.Require(authz.ResourceCourses, authz.ActionCreate))
		r.Get("/new", h.showCreateForm)
		r.Post("/", h.create)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.guard.Require(authz.ResourceReviews, authz.ActionCreate))
		r.Post("/{courseID}/reviews", h.addReview)
	})
}

type searchForm struct {
	Name        string
	CategoryIDs []int64
}

func (h *Handler) searchParams(r *http.Request) searchForm {
	form := searchForm{Name: r.URL.Query().Get("name")}
	for _, raw := range r.URL.Query()["category_ids"] {
		if id, err := strconv.ParseInt(raw, 10, 64); err == nil {
			form.CategoryIDs = append(form.CategoryIDs, id)
		}
	}
	return form
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	form := h.searchParams(r)
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))

	list, pagination, err := h.service.List(r.Context(), SearchFilter{Name: form.Name, CategoryIDs: form.CategoryIDs}, page, 9)
	if err != nil {
		h.logger.Error("list courses", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	categories, err := h.service.Categories(r.Context())
	if err != nil {
		h.logger.Error("list categories", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	h.render(w, r, "pages/courses/index.html", map[string]any{
		"Courses":    list,
		"Categories": categories,
		"Pagination": pagination,
		"Search":     form,
	}, http.StatusOK)
}

type coursePage struct {
	Course *Course
	Recent []reviews.Review
}

// loadCoursePage fetches the public portion of the course page. Concurrent
// requests for the same course share one lookup.
func (h *Handler) loadCoursePage(ctx context.Context, courseID int64) (*coursePage, error) {
	resultChan := h.flight.DoChan(fmt.Sprintf("course:%d", courseID), func() (any, error) {
		course, err := h.service.Get(ctx, courseID)
		if err != nil {
			return nil, err
		}
		recent, _, err := h.reviews.ListForCourse(ctx, courseID, reviews.SortNewest, 1, recentReviewsOnShowPage)
		if err != nil {
			return nil, err
		}
		return &coursePage{Course: course, Recent: recent}, nil
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-resultChan:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*coursePage), nil
	}
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	courseID, err := strconv.ParseInt(chi.URLParam(r, "courseID"), 10, 64)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	page, err := h.loadCoursePage(r.Context(), courseID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		h.logger.Error("show course", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var own *reviews.Review
	if actor := authz.ActorFromContext(r.Context()); actor.IsAuthenticated() {
		own, err = h.reviews.OwnReview(r.Context(), courseID, actor.ID)
		if err != nil {
			h.logger.Error("own review", slog.Any("error", err))
		}
	}

	h.render(w, r, "pages/courses/show.html", map[string]any{
		"Course":    page.Course,
		"Reviews":   page.Recent,
		"OwnReview": own,
	}, http.StatusOK)
}

func (h *Handler) listReviews(w http.ResponseWriter, r *http.Request) {
	courseID, err := strconv.ParseInt(chi.URLParam(r, "courseID"), 10, 64)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	course, err := h.service.Get(r.Context(), courseID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		h.logger.Error("course for reviews", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	order := reviews.ParseSortOrder(r.URL.Query().Get("sort"))
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))
	if perPage <= 0 || perPage > 50 {
		perPage = 5
	}

	list, pagination, err := h.reviews.ListForCourse(r.Context(), courseID, order, page, perPage)
	if err != nil {
		h.logger.Error("list reviews", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var own *reviews.Review
	if actor := authz.ActorFromContext(r.Context()); actor.IsAuthenticated() {
		own, _ = h.reviews.OwnReview(r.Context(), courseID, actor.ID)
	}

	h.render(w, r, "pages/courses/reviews.html", map[string]any{
		"Course":     course,
		"Reviews":    list,
		"Pagination": pagination,
		"OwnReview":  own,
		"Sort":       string(order),
	}, http.StatusOK)
}

type reviewForm struct {
	Rating int    `validate:"required,min=1,max=5"`
	Text   string `validate:"max=4000"`
}

func (h *Handler) addReview(w http.ResponseWriter, r *http.Request) {
	courseID, err := strconv.ParseInt(chi.URLParam(r, "courseID"), 10, 64)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	rating, _ := strconv.Atoi(r.PostFormValue("rating"))
	form := reviewForm{Rating: rating, Text: r.PostFormValue("text")}
	location := fmt.Sprintf("/courses/%d", courseID)

	if err := h.validator.Struct(form); err != nil {
		h.redirectWithFlash(w, r, location, "danger", "Оценка должна быть числом от 1 до 5")
		return
	}

	actor := authz.ActorFromContext(r.Context())
	_, err = h.reviews.RecordReview(r.Context(), reviews.CreateReviewInput{
		CourseID: courseID,
		AuthorID: actor.ID,
		Rating:   form.Rating,
		Text:     form.Text,
	})
	if err != nil {
		h.logReviewFailure(err)
		h.redirectWithFlash(w, r, location, "danger", shared.UserSafeMessage(err))
		return
	}
	h.redirectWithFlash(w, r, location, "success", "Отзыв успешно добавлен!")
}

func (h *Handler) logReviewFailure(err error) {
	// Validation misses are user mistakes, not incidents.
	if shared.IsValidation(err) {
		return
	}
	h.logger.Error("record review", slog.Any("error", err))
}

type courseForm struct {
	Name       string `validate:"required,max=100"`
	ShortDesc  string `validate:"required,max=300"`
	FullDesc   string `validate:"required"`
	CategoryID int64  `validate:"required"`
}

func (h *Handler) showCreateForm(w http.ResponseWriter, r *http.Request) {
	categories, err := h.service.Categories(r.Context())
	if err != nil {
		h.logger.Error("list categories", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	h.render(w, r, "pages/courses/new.html", map[string]any{
		"Categories": categories,
		"Errors":     map[string]string{},
	}, http.StatusOK)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	categoryID, _ := strconv.ParseInt(r.PostFormValue("category_id"), 10, 64)
	form := courseForm{
		Name:       r.PostFormValue("name"),
		ShortDesc:  r.PostFormValue("short_desc"),
		FullDesc:   r.PostFormValue("full_desc"),
		CategoryID: categoryID,
	}

	formErrors := make(map[string]string)
	if err := h.validator.Struct(form); err != nil {
		var fieldErrors validator.ValidationErrors
		if errors.As(err, &fieldErrors) {
			for _, fieldErr := range fieldErrors {
				formErrors[fieldErr.Field()] = "Проверьте корректность введённых данных"
			}
		}
	}
	if len(formErrors) > 0 {
		categories, _ := h.service.Categories(r.Context())
		h.render(w, r, "pages/courses/new.html", map[string]any{
			"Categories": categories,
			"Form":       form,
			"Errors":     formErrors,
		}, http.StatusUnprocessableEntity)
		return
	}

	actor := authz.ActorFromContext(r.Context())
	course, err := h.service.Create(r.Context(), CreateCourseInput{
		Name:       form.Name,
		ShortDesc:  form.ShortDesc,
		FullDesc:   form.FullDesc,
		CategoryID: form.CategoryID,
		AuthorID:   actor.ID,
	})
	if err != nil {
		h.logger.Error("create course", slog.Any("error", err))
		categories, _ := h.service.Categories(r.Context())
		h.render(w, r, "pages/courses/new.html", map[string]any{
			"Categories": categories,
			"Form":       form,
			"Errors":     map[string]string{"general": shared.UserSafeMessage(err)},
		}, http.StatusUnprocessableEntity)
		return
	}

	h.redirectWithFlash(w, r, "/courses", "success", fmt.Sprintf("Курс %s был успешно добавлен!", course.Name))
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, template string, data map[string]any, status int) {
	sess := shared.SessionFromContext(r.Context())
	csrfToken, _ := h.csrf.EnsureToken(r.Context(), sess)
	var flash *shared.FlashMessage
	if sess != nil {
		flash = sess.PopFlash()
	}
	viewData := view.TemplateData{Title: "Курсы", CSRFToken: csrfToken, Flash: flash, CurrentPath: r.URL.Path, Actor: authz.ActorFromContext(r.Context()), Data: data}
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
