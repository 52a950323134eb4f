package service

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/teambition/rrule-go"
	"gopkg.in/yaml.v3"

	"github.com/tazhate/workoutplanner/internal/clients/caldav"
	"github.com/tazhate/workoutplanner/internal/domain"
	"github.com/tazhate/workoutplanner/internal/log"
)

var ErrResourceNotFound = errors.New("resource not found")

// maxOccurrences caps the expansion of one session.
const maxOccurrences = 366

// ResourceService serves the static club schedule and weekly targets files.
// Files are re-read on every call so edits show up without a restart.
type ResourceService struct {
	clubSchedulePath  string
	weeklyTargetsPath string
}

func NewResourceService(clubSchedulePath, weeklyTargetsPath string) *ResourceService {
	return &ResourceService{
		clubSchedulePath:  clubSchedulePath,
		weeklyTargetsPath: weeklyTargetsPath,
	}
}

func (s *ResourceService) ClubSchedule() (*domain.ClubSchedule, error) {
	var sched domain.ClubSchedule
	if err := loadResource(s.clubSchedulePath, &sched); err != nil {
		return nil, err
	}
	return &sched, nil
}

func (s *ResourceService) WeeklyTargets() (*domain.WeeklyTargets, error) {
	var targets domain.WeeklyTargets
	if err := loadResource(s.weeklyTargetsPath, &targets); err != nil {
		return nil, err
	}
	return &targets, nil
}

// ClubOccurrences expands every recurring session over [from, to]. Sessions
// without a rule are not dated and are left out.
func (s *ResourceService) ClubOccurrences(from, to caldav.Date) ([]domain.ClubOccurrence, error) {
	if from.After(to) {
		return nil, caldav.ErrInvalidRange
	}

	sched, err := s.ClubSchedule()
	if err != nil {
		return nil, err
	}
	return expandSessions(sched.Sessions, from, to), nil
}

func expandSessions(sessions []domain.ClubSession, from, to caldav.Date) []domain.ClubOccurrence {
	start := from.In(time.UTC)
	end := to.AddDays(1).In(time.UTC).Add(-time.Nanosecond)

	out := make([]domain.ClubOccurrence, 0)
	for _, session := range sessions {
		if strings.TrimSpace(session.RRule) == "" {
			continue
		}
		set, err := rrule.StrToRRuleSet(session.RRule)
		if err != nil {
			log.Error("club schedule: bad rrule", err, "session", session.Name, "rrule", session.RRule)
			continue
		}

		times := set.Between(start, end, true)
		if len(times) > maxOccurrences {
			times = times[:maxOccurrences]
		}
		for _, t := range times {
			out = append(out, domain.ClubOccurrence{
				Date:    caldav.DateOf(t).String(),
				Session: session,
			})
		}
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

// loadResource decodes a YAML or JSON file into v. JSON is parsed by the
// YAML decoder, which accepts it as a subset.
func loadResource(path string, v any) error {
	if path == "" {
		return ErrResourceNotFound
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: %s", ErrResourceNotFound, filepath.Base(path))
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}
