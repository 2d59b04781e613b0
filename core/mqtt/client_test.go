package mqtt

import "testing"

func TestTopics(t *testing.T) {
	cases := []struct {
		name string
		got  string
		want string
	}{
		{"event", EventTopic("fleet", "simple_000", "EV1"), "fleet/simple_000/EV1/events"},
		{"default prefix", EventTopic("", "s", "EV2"), "depot/s/EV2/events"},
		{"trimmed prefix", SummaryTopic("/a/b/", "s"), "a/b/s/summary"},
		{"wildcards", EventTopic("p", "a/b", "#+"), "p/a_b/__/events"},
		{"empty level", EventTopic("p", "", "EV1"), "p/_/EV1/events"},
		{"status", StatusTopic(""), "depot/status"},
	}
	for _, c := range cases {
		if c.got != c.want {
			t.Errorf("%s: got %q want %q", c.name, c.got, c.want)
		}
	}
}
