package changes

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

type recorder struct {
	got []Change
	err error
}

func (r *recorder) Notify(_ context.Context, c Change) error {
	r.got = append(r.got, c)
	return r.err
}

func TestFanoutDeliversToEveryNotifier(t *testing.T) {
	failing := &recorder{err: errors.New("broker down")}
	ok := &recorder{}
	c := Change{Entity: EntityEvent, EntityID: "abc", Action: ActionCreated}

	err := Fanout{failing, ok, Nop{}}.Notify(context.Background(), c)

	assert.ErrorContains(t, err, "broker down")
	assert.Equal(t, []Change{c}, failing.got)
	assert.Equal(t, []Change{c}, ok.got)
}

func TestFanoutEmpty(t *testing.T) {
	assert.NoError(t, Fanout{}.Notify(context.Background(), Change{}))
}
