package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/nexus-dash/apiserver/types"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// ErrInvalidQuery is returned for an unknown range, metric or period.
var ErrInvalidQuery = errors.New("invalid query")

var (
	dashboardRanges  = []string{"7d", "30d", "90d"}
	analyticsMetrics = []string{"revenue", "users", "sessions", "bounce"}
	analyticsPeriods = []string{"week", "day", "month", "year"}
)

type metricFigures struct {
	current  float64
	previous float64
	change   float64
	up       bool
	format   func(p *message.Printer, v float64) string
}

// InsightsService serves the landing, overview and analytics content.
type InsightsService struct {
	printer *message.Printer
}

func NewInsightsService() *InsightsService {
	return &InsightsService{printer: message.NewPrinter(language.English)}
}

func (s *InsightsService) Landing() types.Landing {
	return types.Landing{
		Headline:     "Build Beyond Limits",
		Tagline:      "Transform your ideas into reality with cutting-edge technology.",
		CallToAction: "Start Building Today",
		Features: []types.Feature{
			{Icon: "⚡", Title: "Lightning Fast", Description: "Sub-millisecond response times"},
			{Icon: "🔒", Title: "Secure", Description: "Enterprise-grade security"},
			{Icon: "📊", Title: "Analytics", Description: "Real-time insights"},
			{Icon: "🚀", Title: "Deploy", Description: "One-click deployment"},
			{Icon: "🎨", Title: "Beautiful UI", Description: "Stunning interfaces"},
			{Icon: "🤖", Title: "AI Powered", Description: "Smart automation"},
		},
		Footer: []types.LinkSection{
			{Title: "Product", Links: []string{"Features", "Pricing", "API"}},
			{Title: "Company", Links: []string{"About", "Blog", "Careers"}},
		},
		Copyright: "© 2025 Nexus. All rights reserved.",
	}
}

// Dashboard builds the overview for firstName. An empty rng means "7d".
func (s *InsightsService) Dashboard(firstName, rng string) (types.Dashboard, error) {
	rng, err := pick("range", rng, dashboardRanges)
	if err != nil {
		return types.Dashboard{}, err
	}
	if strings.TrimSpace(firstName) == "" {
		firstName = "User"
	}

	months := []string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}
	values := []int{45, 68, 52, 85, 72, 95, 78, 88, 75, 98, 90, 94}
	revenue := make([]types.ChartPoint, len(months))
	for i, m := range months {
		revenue[i] = types.ChartPoint{Label: m, Value: values[i]}
	}

	p := s.printer
	return types.Dashboard{
		Greeting: "Welcome back, " + firstName,
		Range:    rng,
		Stats: []types.Stat{
			{Label: "Total Revenue", Value: p.Sprintf("$%d", 124593), Icon: "💰", Change: s.change(23.5), Up: boolPtr(true)},
			{Label: "Active Users", Value: p.Sprintf("%d", 24891), Icon: "👥", Change: s.change(12.3), Up: boolPtr(true)},
			{Label: "Conversion", Value: p.Sprintf("%.2f%%", 4.87), Icon: "📈", Change: s.change(-1.2), Up: boolPtr(false)},
			{Label: "Avg Response", Value: p.Sprintf("%dms", 234), Icon: "⚡", Change: s.change(-15.4), Up: boolPtr(true)},
		},
		Revenue: revenue,
		QuickActions: []types.QuickAction{
			{Label: "New Project", Icon: "➕"},
			{Label: "Invite Team", Icon: "👥"},
			{Label: "Deploy App", Icon: "🚀"},
			{Label: "View Reports", Icon: "📊"},
		},
		RecentActivity: []types.FeedItem{
			{Action: "New user signup", Subject: "Sarah Johnson", Time: "2 min ago", Icon: "👤"},
			{Action: "Payment received", Subject: "Invoice #1247", Time: "8 min ago", Icon: "💳"},
			{Action: "Project deployed", Subject: "nexus-api-v2", Time: "15 min ago", Icon: "🚀"},
			{Action: "Database backup", Subject: "Auto-scheduled", Time: "1 hour ago", Icon: "💾"},
		},
	}, nil
}

// Analytics builds the analytics page. Empty values select "revenue" and
// "week".
func (s *InsightsService) Analytics(metric, period string) (types.Analytics, error) {
	metric, err := pick("metric", metric, analyticsMetrics)
	if err != nil {
		return types.Analytics{}, err
	}
	period, err = pick("period", period, analyticsPeriods)
	if err != nil {
		return types.Analytics{}, err
	}

	dollars := func(p *message.Printer, v float64) string { return p.Sprintf("$%d", int(v)) }
	count := func(p *message.Printer, v float64) string { return p.Sprintf("%d", int(v)) }
	percent := func(p *message.Printer, v float64) string { return p.Sprintf("%.1f%%", v) }
	figures := map[string]metricFigures{
		"revenue":  {current: 124593, previous: 98432, change: 26.5, up: true, format: dollars},
		"users":    {current: 24891, previous: 22103, change: 12.6, up: true, format: count},
		"sessions": {current: 156384, previous: 162491, change: -3.8, up: false, format: count},
		"bounce":   {current: 32.4, previous: 35.7, change: -3.3, up: true, format: percent},
	}

	cards := make([]types.MetricCard, 0, len(analyticsMetrics))
	var selected types.MetricCard
	for _, name := range analyticsMetrics {
		f := figures[name]
		card := types.MetricCard{
			Metric:   name,
			Current:  f.format(s.printer, f.current),
			Previous: f.format(s.printer, f.previous),
			Change:   s.change(f.change),
			Up:       f.up,
		}
		if name == metric {
			selected = card
		}
		cards = append(cards, card)
	}

	return types.Analytics{
		Metric:   metric,
		Period:   period,
		Selected: selected,
		Metrics:  cards,
		Weekly: []types.ChartPoint{
			{Label: "Mon", Value: 45, Sessions: 320},
			{Label: "Tue", Value: 68, Sessions: 450},
			{Label: "Wed", Value: 52, Sessions: 380},
			{Label: "Thu", Value: 85, Sessions: 520},
			{Label: "Fri", Value: 72, Sessions: 490},
			{Label: "Sat", Value: 95, Sessions: 610},
			{Label: "Sun", Value: 78, Sessions: 540},
		},
		TopPages: []types.PageStat{
			{Path: "/dashboard", Views: s.printer.Sprintf("%d", 45382), Bounce: "28.3%", AvgTime: "4:32"},
			{Path: "/analytics", Views: s.printer.Sprintf("%d", 32491), Bounce: "31.2%", AvgTime: "3:45"},
			{Path: "/users", Views: s.printer.Sprintf("%d", 28103), Bounce: "25.8%", AvgTime: "5:12"},
			{Path: "/settings", Views: s.printer.Sprintf("%d", 18492), Bounce: "35.4%", AvgTime: "2:48"},
			{Path: "/profile", Views: s.printer.Sprintf("%d", 12384), Bounce: "29.7%", AvgTime: "3:21"},
		},
		Sources: []types.TrafficSource{
			{Source: "Direct", Visitors: s.printer.Sprintf("%d", 12384), Percentage: 35},
			{Source: "Organic Search", Visitors: s.printer.Sprintf("%d", 10492), Percentage: 30},
			{Source: "Social Media", Visitors: s.printer.Sprintf("%d", 7193), Percentage: 20},
			{Source: "Referral", Visitors: s.printer.Sprintf("%d", 3589), Percentage: 10},
			{Source: "Email", Visitors: s.printer.Sprintf("%d", 1795), Percentage: 5},
		},
	}, nil
}

func (s *InsightsService) change(pct float64) string {
	sign := ""
	if pct >= 0 {
		sign = "+"
	}
	return s.printer.Sprintf("%s%.1f%%", sign, pct)
}

// pick returns value if it is one of allowed, allowed[0] if value is empty.
func pick(name, value string, allowed []string) (string, error) {
	value = strings.ToLower(strings.TrimSpace(value))
	if value == "" {
		return allowed[0], nil
	}
	for _, a := range allowed {
		if a == value {
			return value, nil
		}
	}
	return "", fmt.Errorf("%w: unknown %s %q", ErrInvalidQuery, name, value)
}

func boolPtr(v bool) *bool {
	return &v
}
