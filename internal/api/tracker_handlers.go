package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	apperrors "jobtrail/internal/common/errors"
	"jobtrail/internal/common/validation"
	"jobtrail/internal/models"
	"jobtrail/internal/service"
)

func (s *Server) dashboard(w http.ResponseWriter, r *http.Request) {
	d, err := s.tracker.Dashboard(r.Context(), userID(r))
	if err != nil {
		s.fail(w, r, err, "")
		return
	}
	s.JSON(w, http.StatusOK, d)
}

func (s *Server) listApplications(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := service.ListFilter{Query: q.Get("q"), Status: q.Get("status")}
	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			s.fail(w, r, apperrors.NewValidationError(fmt.Sprintf("invalid limit: %s", raw)), "")
			return
		}
		filter.Limit = limit
	}
	apps, err := s.tracker.ListApplications(r.Context(), userID(r), filter)
	if err != nil {
		s.fail(w, r, err, "")
		return
	}
	s.JSON(w, http.StatusOK, apps)
}

func (s *Server) createApplication(w http.ResponseWriter, r *http.Request) {
	const failed = "Error adding application"
	var in service.ApplicationInput
	if err := decode(r, validation.ApplicationSchema, &in); err != nil {
		s.fail(w, r, err, failed)
		return
	}
	detail, err := s.tracker.CreateApplication(r.Context(), userID(r), in)
	if err != nil {
		s.fail(w, r, err, failed)
		return
	}
	s.done(w, http.StatusCreated, detail, "Application added", "Your job application has been added successfully.")
}

func (s *Server) board(w http.ResponseWriter, r *http.Request) {
	groups, err := s.tracker.Board(r.Context(), userID(r))
	if err != nil {
		s.fail(w, r, err, "")
		return
	}
	s.JSON(w, http.StatusOK, groups)
}

func (s *Server) applicationDetail(w http.ResponseWriter, r *http.Request) {
	detail, err := s.tracker.GetApplicationDetail(r.Context(), userID(r), mux.Vars(r)["id"])
	if err != nil {
		s.fail(w, r, err, "")
		return
	}
	s.JSON(w, http.StatusOK, detail)
}

func (s *Server) updateApplication(w http.ResponseWriter, r *http.Request) {
	const failed = "Error updating application"
	var in service.ApplicationInput
	if err := decode(r, validation.ApplicationSchema, &in); err != nil {
		s.fail(w, r, err, failed)
		return
	}
	detail, err := s.tracker.UpdateApplication(r.Context(), userID(r), mux.Vars(r)["id"], in)
	if err != nil {
		s.fail(w, r, err, failed)
		return
	}
	s.done(w, http.StatusOK, detail, "Application updated", "Your job application has been updated successfully.")
}

func (s *Server) deleteApplication(w http.ResponseWriter, r *http.Request) {
	if err := s.tracker.DeleteApplication(r.Context(), userID(r), mux.Vars(r)["id"]); err != nil {
		s.fail(w, r, err, "Error deleting application")
		return
	}
	s.done(w, http.StatusOK, nil, "Application deleted", "The job application has been deleted successfully.")
}

func (s *Server) expireApplication(w http.ResponseWriter, r *http.Request) {
	detail, err := s.tracker.ExpireApplication(r.Context(), userID(r), mux.Vars(r)["id"])
	if err != nil {
		s.fail(w, r, err, "Error updating application")
		return
	}
	s.done(w, http.StatusOK, detail, "Application expired", "The job application has been marked as expired.")
}

func (s *Server) timeline(w http.ResponseWriter, r *http.Request) {
	entries, err := s.tracker.Timeline(r.Context(), userID(r), mux.Vars(r)["id"])
	if err != nil {
		s.fail(w, r, err, "")
		return
	}
	s.JSON(w, http.StatusOK, entries)
}

func (s *Server) followUps(w http.ResponseWriter, r *http.Request) {
	buckets, err := s.tracker.FollowUps(r.Context(), userID(r))
	if err != nil {
		s.fail(w, r, err, "")
		return
	}
	s.JSON(w, http.StatusOK, buckets)
}

func (s *Server) completeFollowUp(w http.ResponseWriter, r *http.Request) {
	detail, err := s.tracker.CompleteFollowUp(r.Context(), userID(r), mux.Vars(r)["id"])
	if err != nil {
		s.fail(w, r, err, "Error updating follow-up")
		return
	}
	s.done(w, http.StatusOK, detail, "Follow-up marked as completed", "The follow-up has been marked as completed.")
}

func (s *Server) calendar(w http.ResponseWriter, r *http.Request) {
	var day models.Date
	if raw := r.URL.Query().Get("date"); raw != "" {
		parsed, err := models.ParseDate(raw)
		if err != nil {
			s.fail(w, r, apperrors.NewValidationError(fmt.Sprintf("invalid date: %s", raw)), "")
			return
		}
		day = parsed
	}
	view, err := s.tracker.Calendar(r.Context(), userID(r), day)
	if err != nil {
		s.fail(w, r, err, "")
		return
	}
	s.JSON(w, http.StatusOK, view)
}

func (s *Server) statistics(w http.ResponseWriter, r *http.Request) {
	stats, err := s.tracker.Statistics(r.Context(), userID(r), r.URL.Query().Get("range"))
	if err != nil {
		s.fail(w, r, err, "")
		return
	}
	s.JSON(w, http.StatusOK, stats)
}

func (s *Server) settings(w http.ResponseWriter, r *http.Request) {
	settings, err := s.tracker.Settings(r.Context(), userID(r))
	if err != nil {
		s.fail(w, r, err, "")
		return
	}
	s.JSON(w, http.StatusOK, settings)
}

type settingsInput struct {
	FirstFollowUpDays  int   `json:"firstFollowUpDays"`
	SecondFollowUpDays int   `json:"secondFollowUpDays"`
	FinalFollowUpDays  int   `json:"finalFollowUpDays"`
	EmailNotifications *bool `json:"emailNotifications"`
	DailyReminder      *bool `json:"dailyReminder"`
}

// saveSettings stores the offsets. Omitted notification flags keep their
// current value.
func (s *Server) saveSettings(w http.ResponseWriter, r *http.Request) {
	const failed = "Error saving settings"
	var in settingsInput
	if err := decode(r, validation.SettingsSchema, &in); err != nil {
		s.fail(w, r, err, failed)
		return
	}
	current, err := s.tracker.Settings(r.Context(), userID(r))
	if err != nil {
		s.fail(w, r, err, failed)
		return
	}
	next := *current
	next.FirstFollowUpDays = in.FirstFollowUpDays
	next.SecondFollowUpDays = in.SecondFollowUpDays
	next.FinalFollowUpDays = in.FinalFollowUpDays
	if in.EmailNotifications != nil {
		next.EmailNotifications = *in.EmailNotifications
	}
	if in.DailyReminder != nil {
		next.DailyReminder = *in.DailyReminder
	}

	saved, err := s.tracker.SaveSettings(r.Context(), userID(r), next)
	if err != nil {
		s.fail(w, r, err, failed)
		return
	}
	s.done(w, http.StatusOK, saved, "Settings saved", "Your settings have been saved successfully.")
}

type targetResponse struct {
	Date         models.Date `json:"date"`
	TargetNumber int         `json:"targetNumber"`
}

func (s *Server) dailyTarget(w http.ResponseWriter, r *http.Request) {
	n, err := s.tracker.DailyTarget(r.Context(), userID(r))
	if err != nil {
		s.fail(w, r, err, "")
		return
	}
	s.JSON(w, http.StatusOK, targetResponse{Date: s.tracker.Today(), TargetNumber: n})
}

func (s *Server) setDailyTarget(w http.ResponseWriter, r *http.Request) {
	const failed = "Error setting target"
	var in struct {
		TargetNumber int `json:"targetNumber"`
	}
	if err := decode(r, validation.DailyTargetSchema, &in); err != nil {
		s.fail(w, r, err, failed)
		return
	}
	target, err := s.tracker.SetDailyTarget(r.Context(), userID(r), in.TargetNumber)
	if err != nil {
		s.fail(w, r, err, failed)
		return
	}
	s.done(w, http.StatusOK, target, "Target set",
		fmt.Sprintf("Your daily target of %d applications has been set.", target.TargetNumber))
}
