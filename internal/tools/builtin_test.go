package tools

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func TestWeather(t *testing.T) {
	tool := Weather()
	if tool.Name() != NameWeather {
		t.Fatalf("Name = %q", tool.Name())
	}

	out, err := tool.Invoke(context.Background(), json.RawMessage(`{"city":"Madrid"}`))
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if out != "The weather in Madrid is sunny and pleasant." {
		t.Errorf("output = %q", out)
	}
}

func TestWeather_BadArguments(t *testing.T) {
	for name, raw := range map[string]string{
		"not json":   `{city:`,
		"no city":    `{}`,
		"blank city": `{"city":"  "}`,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := Weather().Invoke(context.Background(), json.RawMessage(raw))
			if !errors.Is(err, ErrInvalidArguments) {
				t.Fatalf("expected ErrInvalidArguments, got %v", err)
			}
		})
	}
}

func TestTimeAt(t *testing.T) {
	fixed := time.Date(2025, 3, 1, 9, 5, 7, 0, time.UTC)
	tool := TimeAt(func() time.Time { return fixed })

	out, err := tool.Invoke(context.Background(), nil)
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if out != "The current time is 09:05:07" {
		t.Errorf("output = %q", out)
	}
}

func TestCalculate(t *testing.T) {
	out, err := Calculate().Invoke(context.Background(), json.RawMessage(`{"expression":"15 * 8 + 23"}`))
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if out != "The result of 15 * 8 + 23 is 143" {
		t.Errorf("output = %q", out)
	}

	if _, err := Calculate().Invoke(context.Background(), json.RawMessage(`{"expression":"exec('rm')"}`)); !errors.Is(err, ErrInvalidExpression) {
		t.Errorf("expected ErrInvalidExpression, got %v", err)
	}
}

func TestObjectSchema(t *testing.T) {
	s := ObjectSchema([]StringParam{{Name: "city", Description: "d"}})
	if s["type"] != "object" {
		t.Errorf("type = %v", s["type"])
	}
	req, _ := s["required"].([]string)
	if len(req) != 1 || req[0] != "city" {
		t.Errorf("required = %v", s["required"])
	}

	empty := New("noop", "", nil, nil).Parameters()
	if props, _ := empty["properties"].(map[string]any); len(props) != 0 {
		t.Errorf("expected no properties, got %v", props)
	}
}

func TestFunctionTool_NilHandler(t *testing.T) {
	if _, err := New("noop", "", nil, nil).Invoke(context.Background(), nil); err == nil {
		t.Fatal("expected error for tool without handler")
	}
}

func TestBuiltins(t *testing.T) {
	b := Builtins()
	for _, name := range []string{NameWeather, NameTime, NameCalculate} {
		tool, ok := b[name]
		if !ok {
			t.Fatalf("missing builtin %q", name)
		}
		if tool.Name() != name || tool.Description() == "" {
			t.Errorf("builtin %q malformed", name)
		}
	}
}
