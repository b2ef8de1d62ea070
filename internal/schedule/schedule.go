// Package schedule decides when the dashboard resyncs with the checker server.
package schedule

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// MinInterval is the shortest interval that ParseInterval accepts.
const MinInterval = 10 * time.Second

var (
	DefaultSchedule = Schedule(IntervalSchedule{5 * time.Minute})
)

// Schedule is a resync schedule.
// It can be registered to cron.Cron directly.
type Schedule interface {
	cron.Schedule
	fmt.Stringer

	// NeedKickWhenStart reports whether the job should run right after start.
	NeedKickWhenStart() bool
}

// Parse parses a duration like "5m", or a cron spec like "*/5 * * * ?" or "@hourly".
func Parse(spec string) (Schedule, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return DefaultSchedule, nil
	}

	if s, err := ParseInterval(spec); err == nil {
		return s, nil
	} else if _, derr := time.ParseDuration(spec); derr == nil {
		return nil, err
	}

	return ParseCron(spec)
}

// IntervalSchedule runs the job every Interval.
type IntervalSchedule struct {
	Interval time.Duration
}

// ParseInterval parses a duration like "5m".
// It rejects intervals shorter than MinInterval.
func ParseInterval(spec string) (IntervalSchedule, error) {
	d, err := time.ParseDuration(spec)
	if err != nil {
		return IntervalSchedule{}, err
	}
	if d < MinInterval {
		return IntervalSchedule{}, fmt.Errorf("resync interval must be %s or longer: %s", MinInterval, d)
	}
	return IntervalSchedule{d}, nil
}

func (s IntervalSchedule) Next(t time.Time) time.Time {
	return t.Add(s.Interval)
}

func (s IntervalSchedule) String() string {
	return s.Interval.String()
}

// NeedKickWhenStart is false, because the controller fetches everything on start.
func (s IntervalSchedule) NeedKickWhenStart() bool {
	return false
}

// CronSchedule runs the job on the time that matches to the cron spec.
type CronSchedule struct {
	spec     string
	schedule cron.Schedule
}

var cronDelimiter = regexp.MustCompile("[ \t]+")

// ParseCron parses a cron spec.
// The day of week field is optional.
func ParseCron(spec string) (CronSchedule, error) {
	switch spec {
	case "@daily":
		spec = "0 0 * * ?"
	case "@hourly":
		spec = "0 * * * ?"
	default:
		ss := cronDelimiter.Split(strings.TrimSpace(spec), -1)
		if len(ss) == 4 {
			ss = append(ss, "?")
		}
		spec = strings.Join(ss, " ")
	}

	s, err := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.DowOptional).Parse(spec)
	if err != nil {
		return CronSchedule{}, err
	}

	return CronSchedule{
		spec:     spec,
		schedule: s,
	}, nil
}

func (s CronSchedule) Next(t time.Time) time.Time {
	return s.schedule.Next(t)
}

func (s CronSchedule) String() string {
	return s.spec
}

func (s CronSchedule) NeedKickWhenStart() bool {
	return false
}

// Start runs f on every time of s until the returned stop function called.
func Start(s Schedule, f func()) (stop func()) {
	c := cron.New()
	c.Schedule(s, cron.FuncJob(f))
	c.Start()

	if s.NeedKickWhenStart() {
		go f()
	}

	return func() {
		<-c.Stop().Done()
	}
}
