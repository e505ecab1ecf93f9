package chat

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Comparison is the reply of one model to a Compare prompt.
type Comparison struct {
	// Model is the name as given by the caller.
	Model string
	Text  string
	Err   error
}

// Compare sends prompt as a one-off request to every model concurrently.
// Results keep the order of models. A failing model yields Err and the text
// "Error: <msg>"; it never cancels the others.
func (c *Client) Compare(ctx context.Context, prompt string, models []string, opts ...CallOption) []Comparison {
	out := make([]Comparison, len(models))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.compareConcurrency)

	for i, m := range models {
		o := c.callOptions(opts)
		if m != "" {
			o.model = m
		}
		g.Go(func() error {
			out[i].Model = m
			resp, err := c.response(gctx, OpCompare, o, prompt)
			if err != nil {
				out[i].Err = err
				out[i].Text = "Error: " + err.Error()
				return nil
			}
			out[i].Text = resp.Content
			return nil
		})
	}

	_ = g.Wait()
	return out
}
