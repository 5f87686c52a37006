package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
)

// episodeFields has Episode's fields without its JSON methods.
type episodeFields Episode

var episodeKeys = jsonKeys(reflect.TypeOf(episodeFields{}))

func jsonKeys(t reflect.Type) map[string]struct{} {
	keys := make(map[string]struct{}, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		name, _, _ := strings.Cut(t.Field(i).Tag.Get("json"), ",")
		if name == "" || name == "-" {
			continue
		}
		keys[name] = struct{}{}
	}
	return keys
}

func (e Episode) MarshalJSON() ([]byte, error) {
	raw, err := json.Marshal(episodeFields(e))
	if err != nil {
		return nil, err
	}

	keys := make([]string, 0, len(e.Extra))
	for k := range e.Extra {
		if _, known := episodeKeys[k]; !known {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	for _, k := range keys {
		value, err := json.Marshal(e.Extra[k])
		if err != nil {
			return nil, fmt.Errorf("failed to encode episode field %q: %w", k, err)
		}
		if raw, err = appendMember(raw, k, value); err != nil {
			return nil, err
		}
	}
	return raw, nil
}

// UnmarshalJSON decodes the known fields and collects the rest into Extra.
// Keys starting with $ cannot be stored and are rejected.
func (e *Episode) UnmarshalJSON(data []byte) error {
	var fields episodeFields
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}

	var all map[string]interface{}
	if err := json.Unmarshal(data, &all); err != nil {
		return err
	}
	for k := range episodeKeys {
		delete(all, k)
	}
	for k := range all {
		if strings.HasPrefix(k, "$") {
			return fmt.Errorf("episode field %q is not allowed", k)
		}
	}

	*e = Episode(fields)
	if len(all) > 0 {
		e.Extra = bson.M(all)
	}
	return nil
}

func (d EpisodeDetail) MarshalJSON() ([]byte, error) {
	episode := d.Episode
	if _, clash := episode.Extra["facts"]; clash {
		extra := make(bson.M, len(episode.Extra))
		for k, v := range episode.Extra {
			if k != "facts" {
				extra[k] = v
			}
		}
		episode.Extra = extra
	}

	raw, err := episode.MarshalJSON()
	if err != nil {
		return nil, err
	}
	facts, err := json.Marshal(d.Facts)
	if err != nil {
		return nil, err
	}
	return appendMember(raw, "facts", facts)
}

// appendMember adds "key": value to the end of an encoded JSON object.
func appendMember(obj []byte, key string, value []byte) ([]byte, error) {
	obj = bytes.TrimRight(obj, " \n")
	if len(obj) < 2 || obj[len(obj)-1] != '}' {
		return nil, fmt.Errorf("cannot add %q to non-object JSON", key)
	}
	name, err := json.Marshal(key)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	buf.Grow(len(obj) + len(name) + len(value) + 2)
	buf.Write(obj[:len(obj)-1])
	if len(bytes.TrimSpace(obj[1:len(obj)-1])) > 0 {
		buf.WriteByte(',')
	}
	buf.Write(name)
	buf.WriteByte(':')
	buf.Write(value)
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
