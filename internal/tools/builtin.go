package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Built-in tool names.
const (
	NameWeather   = "get_weather"
	NameTime      = "get_time"
	NameCalculate = "calculate"
)

// Weather returns the get_weather tool. It reports a fixed forecast.
func Weather() Tool {
	return New(
		NameWeather,
		"Get the current weather for a city.",
		ObjectSchema([]StringParam{{Name: "city", Description: "City name, e.g. Madrid"}}),
		func(_ context.Context, raw json.RawMessage) (string, error) {
			var args struct {
				City string `json:"city"`
			}
			if err := decodeArgs(NameWeather, raw, &args); err != nil {
				return "", err
			}
			city := strings.TrimSpace(args.City)
			if city == "" {
				return "", fmt.Errorf("tools: %s: %w: city is required", NameWeather, ErrInvalidArguments)
			}
			return fmt.Sprintf("The weather in %s is sunny and pleasant.", city), nil
		},
	)
}

// Time returns the get_time tool reading the local wall clock.
func Time() Tool { return TimeAt(time.Now) }

// TimeAt returns a get_time tool reading now.
func TimeAt(now func() time.Time) Tool {
	return New(
		NameTime,
		"Get the current local time.",
		nil,
		func(context.Context, json.RawMessage) (string, error) {
			return "The current time is " + now().Format("15:04:05"), nil
		},
	)
}

// Calculate returns the calculate tool. Expressions are evaluated by Eval.
func Calculate() Tool {
	return New(
		NameCalculate,
		"Evaluate an arithmetic expression with + - * / %, unary signs and parentheses.",
		ObjectSchema([]StringParam{{Name: "expression", Description: "Arithmetic expression, e.g. 15 * 8 + 23"}}),
		func(_ context.Context, raw json.RawMessage) (string, error) {
			var args struct {
				Expression string `json:"expression"`
			}
			if err := decodeArgs(NameCalculate, raw, &args); err != nil {
				return "", err
			}
			v, err := Eval(args.Expression)
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("The result of %s is %s", strings.TrimSpace(args.Expression), FormatNumber(v)), nil
		},
	)
}

// Builtins returns every built-in tool keyed by name.
func Builtins() map[string]Tool {
	return map[string]Tool{
		NameWeather:   Weather(),
		NameTime:      Time(),
		NameCalculate: Calculate(),
	}
}
