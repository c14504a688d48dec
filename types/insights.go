package types

// Feature is one card of the landing page feature grid.
type Feature struct {
	Icon        string `json:"icon"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// LinkSection is a titled group of footer links.
type LinkSection struct {
	Title string   `json:"title"`
	Links []string `json:"links"`
}

// Landing is the public landing page content.
type Landing struct {
	Headline     string        `json:"headline"`
	Tagline      string        `json:"tagline"`
	CallToAction string        `json:"call_to_action"`
	Features     []Feature     `json:"features"`
	Footer       []LinkSection `json:"footer"`
	Copyright    string        `json:"copyright"`
}

type ChartPoint struct {
	Label    string `json:"label"`
	Value    int    `json:"value"`
	Sessions int    `json:"sessions,omitempty"`
}

type QuickAction struct {
	Label string `json:"label"`
	Icon  string `json:"icon"`
}

// FeedItem is an entry of the dashboard's recent activity panel.
type FeedItem struct {
	Action  string `json:"action"`
	Subject string `json:"subject"`
	Time    string `json:"time"`
	Icon    string `json:"icon"`
}

// Dashboard is the overview page of a signed-in account.
type Dashboard struct {
	Greeting       string        `json:"greeting"`
	Range          string        `json:"range"`
	Stats          []Stat        `json:"stats"`
	Revenue        []ChartPoint  `json:"revenue"`
	QuickActions   []QuickAction `json:"quick_actions"`
	RecentActivity []FeedItem    `json:"recent_activity"`
}

// MetricCard compares a metric with the previous period.
type MetricCard struct {
	Metric   string `json:"metric"`
	Current  string `json:"current"`
	Previous string `json:"previous"`
	Change   string `json:"change"`
	Up       bool   `json:"up"`
}

type PageStat struct {
	Path    string `json:"path"`
	Views   string `json:"views"`
	Bounce  string `json:"bounce"`
	AvgTime string `json:"avg_time"`
}

type TrafficSource struct {
	Source     string `json:"source"`
	Visitors   string `json:"visitors"`
	Percentage int    `json:"percentage"`
}

// Analytics is the analytics page for one metric and period.
type Analytics struct {
	Metric   string          `json:"metric"`
	Period   string          `json:"period"`
	Selected MetricCard      `json:"selected"`
	Metrics  []MetricCard    `json:"metrics"`
	Weekly   []ChartPoint    `json:"weekly"`
	TopPages []PageStat      `json:"top_pages"`
	Sources  []TrafficSource `json:"sources"`
}
