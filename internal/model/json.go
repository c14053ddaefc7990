package model

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Keywords decodes from either a JSON array or a comma separated string.
type Keywords []string

// UnmarshalJSON implements json.Unmarshaler.
func (k *Keywords) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch v := raw.(type) {
	case nil:
		*k = Keywords{}
	case string:
		*k = SplitKeywords(v)
	case []any:
		out := make(Keywords, 0, len(v))
		for _, item := range v {
			if s := looseString(item); s != "" {
				out = append(out, s)
			}
		}
		*k = out
	default:
		*k = SplitKeywords(looseString(v))
	}
	return nil
}

// SplitKeywords splits a comma separated list, trimming blanks.
func SplitKeywords(s string) Keywords {
	out := Keywords{}
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// UnmarshalJSON accepts numeric job ids as well as strings.
func (j *Job) UnmarshalJSON(data []byte) error {
	type alias Job
	aux := struct {
		ID   any `json:"id"`
		Tags any `json:"tags"`
		*alias
	}{alias: (*alias)(j)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	j.ID = looseString(aux.ID)
	j.Tags = nil
	if tags, ok := aux.Tags.([]any); ok {
		for _, t := range tags {
			if s := looseString(t); s != "" {
				j.Tags = append(j.Tags, s)
			}
		}
	}
	return nil
}

func looseString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprint(t)
	}
}
