package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/teacher-ratings-api/internal/models"
	"github.com/noah-isme/teacher-ratings-api/internal/service"
	"github.com/noah-isme/teacher-ratings-api/pkg/response"
)

// VoteCookie configures the cookie that carries voter evidence.
type VoteCookie struct {
	Name   string
	MaxAge time.Duration
	Secure bool
}

// RatingHandler serves public votes and admin vote moderation.
type RatingHandler struct {
	ratings *service.RatingService
	cookie  VoteCookie
}

// NewRatingHandler constructs a RatingHandler.
func NewRatingHandler(ratings *service.RatingService, cookie VoteCookie) *RatingHandler {
	if cookie.Name == "" {
		cookie.Name = "votedTeachers"
	}
	if cookie.MaxAge <= 0 {
		cookie.MaxAge = 365 * 24 * time.Hour
	}
	return &RatingHandler{ratings: ratings, cookie: cookie}
}

// SubmitResponse acknowledges an accepted vote.
type SubmitResponse struct {
	Message       string   `json:"message"`
	VotedTeachers []string `json:"voted_teachers"`
}

// UpdateVoteResponse acknowledges an admin edit.
type UpdateVoteResponse struct {
	Message string        `json:"message"`
	Rating  models.Rating `json:"rating"`
}

// DeleteVoteResponse acknowledges an admin removal.
type DeleteVoteResponse struct {
	Message string `json:"message"`
	Removed int    `json:"removed"`
}

// Submit godoc
// @Summary Rate a teacher
// @Description One vote per teacher per browser, tracked by the votedTeachers cookie.
// @Tags Ratings
// @Accept json
// @Produce json
// @Param payload body service.SubmitRatingRequest true "Rating payload"
// @Success 200 {object} handler.SubmitResponse
// @Failure 400 {object} response.ErrorBody
// @Failure 404 {object} response.ErrorBody
// @Router /ratings [post]
func (h *RatingHandler) Submit(c *gin.Context) {
	var req service.SubmitRatingRequest
	if err := bindJSON(c, &req, "Invalid input: teacher_id and a rating between 1 and 5 are required"); err != nil {
		response.Error(c, err)
		return
	}

	evidence, err := h.ratings.Submit(c.Request.Context(), req, h.readEvidence(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	http.SetCookie(c.Writer, &http.Cookie{
		Name:     h.cookie.Name,
		Value:    evidence.Encode(),
		Path:     "/",
		MaxAge:   int(h.cookie.MaxAge.Seconds()),
		Expires:  time.Now().Add(h.cookie.MaxAge),
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	response.OK(c, SubmitResponse{Message: "Rating submitted!", VotedTeachers: evidence.IDs()})
}

// readEvidence reads the raw cookie; gin's Cookie helper would unescape it first.
func (h *RatingHandler) readEvidence(c *gin.Context) service.VoterEvidence {
	cookie, err := c.Request.Cookie(h.cookie.Name)
	if err != nil {
		return service.VoterEvidence{}
	}
	return service.ParseVoterEvidence(cookie.Value)
}

// ListVotes godoc
// @Summary List every rating
// @Tags Admin
// @Produce json
// @Security AdminToken
// @Success 200 {array} models.Rating
// @Router /admin/votes [get]
func (h *RatingHandler) ListVotes(c *gin.Context) {
	response.OK(c, h.ratings.ListAll(c.Request.Context()))
}

// UpdateVote godoc
// @Summary Modify a rating
// @Description Without ratingId the teacher must have exactly one rating.
// @Tags Admin
// @Accept json
// @Produce json
// @Security AdminToken
// @Param teacherId path string true "Teacher ID"
// @Param ratingId path string false "Rating ID"
// @Param payload body service.UpdateRatingRequest true "New score and comment"
// @Success 200 {object} handler.UpdateVoteResponse
// @Failure 404 {object} response.ErrorBody
// @Failure 409 {object} response.ErrorBody
// @Router /admin/votes/{teacherId}/{ratingId} [put]
func (h *RatingHandler) UpdateVote(c *gin.Context) {
	var req service.UpdateRatingRequest
	if err := bindJSON(c, &req, "invalid rating payload"); err != nil {
		response.Error(c, err)
		return
	}
	rating, err := h.ratings.Update(c.Request.Context(), c.Param("teacherId"), c.Param("ratingId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, UpdateVoteResponse{Message: "Vote modified successfully!", Rating: *rating})
}

// DeleteVote godoc
// @Summary Delete ratings
// @Description Without ratingId every rating of the teacher is removed.
// @Tags Admin
// @Produce json
// @Security AdminToken
// @Param teacherId path string true "Teacher ID"
// @Param ratingId path string false "Rating ID"
// @Success 200 {object} handler.DeleteVoteResponse
// @Failure 404 {object} response.ErrorBody
// @Router /admin/votes/{teacherId}/{ratingId} [delete]
func (h *RatingHandler) DeleteVote(c *gin.Context) {
	removed, err := h.ratings.Remove(c.Request.Context(), c.Param("teacherId"), c.Param("ratingId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, DeleteVoteResponse{Message: "Vote deleted successfully!", Removed: removed})
}
