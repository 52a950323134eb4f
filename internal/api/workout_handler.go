package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tazhate/workoutplanner/internal/service"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type selectionRequest struct {
	IsSelected *bool   `json:"isSelected"`
	ActualDate *string `json:"actualDate"`
	// older clients send the moved date as currentPlanDay
	CurrentPlanDay *string `json:"currentPlanDay"`
	TimeOfDay      *string `json:"timeOfDay"`
	Location       *string `json:"workoutLocation"`
	UserNotes      *string `json:"userNotes"`
}

type customWorkoutRequest struct {
	Title           *string  `json:"title"`
	WorkoutType     *string  `json:"workoutType"`
	Description     *string  `json:"description"`
	PlannedDate     *string  `json:"plannedDate"`
	PlannedDuration *float64 `json:"plannedDuration"`
	TimeOfDay       *string  `json:"timeOfDay"`
	Location        *string  `json:"workoutLocation"`
}

func (r customWorkoutRequest) input() service.CustomWorkoutInput {
	return service.CustomWorkoutInput{
		Title:           r.Title,
		WorkoutType:     r.WorkoutType,
		Description:     r.Description,
		PlannedDate:     r.PlannedDate,
		PlannedDuration: r.PlannedDuration,
		TimeOfDay:       r.TimeOfDay,
		Location:        r.Location,
	}
}

func (h *Handler) Health(c *gin.Context) {
	status, code := "healthy", http.StatusOK
	database := "ok"
	if h.deps.Ping != nil {
		if err := h.deps.Ping(); err != nil {
			status, code, database = "unhealthy", http.StatusServiceUnavailable, err.Error()
		}
	}
	c.JSON(code, gin.H{
		"status":           status,
		"timestamp":        time.Now().UTC().Format(time.RFC3339),
		"database":         database,
		"caldavConfigured": h.deps.Exporter != nil,
	})
}

func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Username == "" || req.Password == "" {
		abortWithError(c, http.StatusBadRequest, "username and password are required")
		return
	}

	token, user, err := h.deps.Auth.Login(req.Username, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrAuthenticationFailed) {
			abortWithError(c, http.StatusUnauthorized, err.Error())
			return
		}
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"user":  gin.H{"id": user.ID, "username": user.Username},
	})
}

// Me returns the authenticated user.
func (h *Handler) Me(c *gin.Context) {
	user, err := h.deps.Auth.CurrentUser(c.GetInt64(ContextUserIDKey))
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			abortWithError(c, http.StatusUnauthorized, "User not found")
			return
		}
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"id":        user.ID,
		"username":  user.Username,
		"createdAt": formatTime(user.CreatedAt),
	})
}

// Register is closed; users are created with plannerctl.
func (h *Handler) Register(c *gin.Context) {
	abortWithError(c, http.StatusForbidden, "Registration is disabled")
}

func (h *Handler) ListWorkouts(c *gin.Context) {
	workouts, err := h.deps.Workouts.List()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"workouts": toWorkoutResponses(workouts), "count": len(workouts)})
}

func (h *Handler) GetWorkout(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	w, err := h.deps.Workouts.Get(id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toWorkoutResponse(w))
}

// ImportWorkouts accepts a multipart "file" upload or a raw CSV body.
func (h *Handler) ImportWorkouts(c *gin.Context) {
	var body io.Reader = c.Request.Body
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		fh, err := c.FormFile("file")
		if err != nil {
			abortWithError(c, http.StatusBadRequest, "No CSV data provided")
			return
		}
		f, err := fh.Open()
		if err != nil {
			respondError(c, err)
			return
		}
		defer f.Close()
		body = f
	}

	res, err := h.deps.Workouts.ImportCSV(body)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message":    fmt.Sprintf("Successfully imported %d workouts", res.Imported),
		"imported":   res.Imported,
		"duplicates": res.Duplicates,
		"invalid":    res.Invalid,
	})
}

func (h *Handler) UpdateSelection(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var req selectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if req.ActualDate == nil && req.CurrentPlanDay != nil {
		req.ActualDate = req.CurrentPlanDay
	}

	sel, err := h.deps.Workouts.UpdateSelection(id, service.SelectionInput{
		IsSelected: req.IsSelected,
		ActualDate: req.ActualDate,
		TimeOfDay:  req.TimeOfDay,
		Location:   req.Location,
		UserNotes:  req.UserNotes,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toSelectionResponse(sel))
}

func (h *Handler) DeleteSelection(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	if err := h.deps.Workouts.ResetSelection(id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Selection deleted"})
}

func (h *Handler) ListCustomWorkouts(c *gin.Context) {
	workouts, err := h.deps.Workouts.ListCustom()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"customWorkouts": toWorkoutResponses(workouts), "count": len(workouts)})
}

func (h *Handler) CreateCustomWorkout(c *gin.Context) {
	var req customWorkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	w, err := h.deps.Workouts.CreateCustom(req.input())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toWorkoutResponse(w))
}

func (h *Handler) UpdateCustomWorkout(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var req customWorkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	w, err := h.deps.Workouts.UpdateCustom(id, req.input())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toWorkoutResponse(w))
}

func (h *Handler) DeleteCustomWorkout(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	if err := h.deps.Workouts.DeleteCustom(id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Custom workout deleted"})
}

func (h *Handler) Stats(c *gin.Context) {
	stats, err := h.deps.Workouts.Stats()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func idParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		abortWithError(c, http.StatusBadRequest, "invalid id")
		return 0, false
	}
	return id, true
}
