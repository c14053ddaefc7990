package model_test

import (
	"encoding/json"
	"reflect"
	"testing"

	"jobmate/alerts-service/internal/model"
)

func TestKeywordsUnmarshal(t *testing.T) {
	cases := []struct {
		in   string
		want model.Keywords
	}{
		{`["react","","go"]`, model.Keywords{"react", "go"}},
		{`"react, go ,,"`, model.Keywords{"react", "go"}},
		{`""`, model.Keywords{}},
		{`[1, "two"]`, model.Keywords{"1", "two"}},
	}
	for _, c := range cases {
		var got model.Keywords
		if err := json.Unmarshal([]byte(c.in), &got); err != nil {
			t.Errorf("%s: %v", c.in, err)
			continue
		}
		if !reflect.DeepEqual(got, c.want) {
			t.Errorf("%s: got %q, want %q", c.in, got, c.want)
		}
	}
}

func TestJobUnmarshal_NumericID(t *testing.T) {
	var jobs []model.Job
	data := `[{"id":42,"title":"Frontend Engineer","tags":["Engineering",7]},{"id":"abc","title":"x"}]`
	if err := json.Unmarshal([]byte(data), &jobs); err != nil {
		t.Fatal(err)
	}
	if jobs[0].ID != "42" || jobs[1].ID != "abc" {
		t.Errorf("ids = %q, %q", jobs[0].ID, jobs[1].ID)
	}
	if !reflect.DeepEqual(jobs[0].Tags, []string{"Engineering", "7"}) {
		t.Errorf("tags = %q", jobs[0].Tags)
	}
	if jobs[0].Title != "Frontend Engineer" {
		t.Errorf("title = %q", jobs[0].Title)
	}
}

func TestParsePushPermission(t *testing.T) {
	for in, want := range map[string]model.PushPermission{
		"granted":     model.PermissionGranted,
		"denied":      model.PermissionDenied,
		"unsupported": model.PermissionUnsupported,
		"default":     model.PermissionDefault,
		"bogus":       model.PermissionDefault,
		"":            model.PermissionDefault,
	} {
		if got := model.ParsePushPermission(in); got != want {
			t.Errorf("ParsePushPermission(%q) = %q, want %q", in, got, want)
		}
	}
}
