package dom

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMutationsAreJournaled(t *testing.T) {
	doc := New(Element{ID: "loader", Hidden: true}, Element{ID: "out"})

	doc.Show("loader")
	doc.SetHTML("out", "<p>hi</p>")
	doc.Hide("loader")
	doc.Hide("missing")

	require.True(t, doc.Hidden("loader"))
	require.True(t, doc.Hidden("missing"))
	require.Equal(t, "<p>hi</p>", string(doc.HTML("out")))
	require.Equal(t, []Mutation{
		{Op: OpShow, Target: "loader"},
		{Op: OpSetHTML, Target: "out"},
		{Op: OpHide, Target: "loader"},
	}, doc.Journal())
	require.Equal(t, 1, doc.Count(OpHide, "loader"))
}

func TestDispatchRunsListenersInOrder(t *testing.T) {
	doc := New(Element{ID: "btn"})
	var calls []string

	offA := doc.On("btn", "click", func(ctx context.Context, ev *Event) error {
		calls = append(calls, "a")
		ev.PreventDefault()
		return nil
	})
	doc.On("btn", "click", func(ctx context.Context, ev *Event) error {
		calls = append(calls, "b")
		return errors.New("b failed")
	})
	doc.On("btn", "submit", func(ctx context.Context, ev *Event) error {
		calls = append(calls, "other")
		return nil
	})

	ev, err := doc.Dispatch(context.Background(), "btn", "click")
	require.EqualError(t, err, "b failed")
	require.True(t, ev.DefaultPrevented())
	require.Equal(t, []string{"a", "b"}, calls)

	offA()
	offA()
	require.Equal(t, 1, doc.ListenerCount("btn", "click"))
}

func TestDispatchMissingElement(t *testing.T) {
	doc := New()
	_, err := doc.Dispatch(context.Background(), "itinerary-form", "submit")
	require.ErrorIs(t, err, ErrNoElement)
}

func TestListenerMayMutateDocument(t *testing.T) {
	doc := New(Element{ID: "form"}, Element{ID: "out"})
	doc.On("form", "submit", func(ctx context.Context, ev *Event) error {
		doc.SetHTML("out", "done")
		return nil
	})

	_, err := doc.Dispatch(context.Background(), "form", "submit")
	require.NoError(t, err)
	require.Equal(t, "done", string(doc.HTML("out")))
}
