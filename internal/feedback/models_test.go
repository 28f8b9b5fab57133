package feedback

import "testing"

func TestItemValidate(t *testing.T) {
	cases := []struct {
		name    string
		item    Item
		wantErr bool
	}{
		{name: "valid review", item: Item{ID: "r1", Source: SourceReview, Text: "hi"}},
		{name: "valid email", item: Item{ID: "e1", Source: SourceEmail, Text: "hi"}},
		{name: "missing id", item: Item{Source: SourceReview, Text: "hi"}, wantErr: true},
		{name: "blank text", item: Item{ID: "r1", Source: SourceReview, Text: "   "}, wantErr: true},
		{name: "unknown source", item: Item{ID: "r1", Source: "fax", Text: "hi"}, wantErr: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.item.Validate()
			if (err != nil) != tc.wantErr {
				t.Fatalf("Validate() = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}

func TestParseCategory(t *testing.T) {
	cases := []struct {
		in   string
		want Category
		ok   bool
	}{
		{"Bug", CategoryBug, true},
		{"bug", CategoryBug, true},
		{" Feature Request ", CategoryFeatureRequest, true},
		{"feature_request", CategoryFeatureRequest, true},
		{"feature", CategoryFeatureRequest, true},
		{"PRAISE", CategoryPraise, true},
		{"failed", CategoryFailed, true},
		{"question", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, ok := ParseCategory(tc.in)
		if got != tc.want || ok != tc.ok {
			t.Errorf("ParseCategory(%q) = %q, %v; want %q, %v", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}

func TestPriorityRankOrdering(t *testing.T) {
	order := []Priority{PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical}
	for i := 1; i < len(order); i++ {
		if order[i].Rank() <= order[i-1].Rank() {
			t.Errorf("%s should outrank %s", order[i], order[i-1])
		}
	}
	if Priority("bogus").Rank() != 0 {
		t.Error("unknown priority should rank 0")
	}
}

func TestParsePriority(t *testing.T) {
	if got, ok := ParsePriority(" critical "); !ok || got != PriorityCritical {
		t.Errorf("ParsePriority(critical) = %q, %v", got, ok)
	}
	if _, ok := ParsePriority("urgent"); ok {
		t.Error("urgent should not parse")
	}
}
