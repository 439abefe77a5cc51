package observable

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubscribe_ReceivesCurrentValue(t *testing.T) {
	v := NewValue(10)

	sub := v.Subscribe()
	defer sub.Cancel()

	assert.Equal(t, 10, <-sub.C())
	assert.NotEmpty(t, sub.ID())
}

func TestSet_LatestValueWins(t *testing.T) {
	v := NewValue(0)
	sub := v.Subscribe()
	defer sub.Cancel()

	// Nenhuma leitura entre os Sets: só o último chega.
	v.Set(1)
	v.Set(2)
	v.Set(3)

	assert.Equal(t, 3, <-sub.C())
	select {
	case extra := <-sub.C():
		t.Fatalf("valor intermediário inesperado: %d", extra)
	default:
	}
	assert.Equal(t, 3, v.Get())
}

func TestSet_FanOutToAllSubscribers(t *testing.T) {
	v := NewValue("a")
	s1 := v.Subscribe()
	s2 := v.Subscribe()
	<-s1.C()
	<-s2.C()

	v.Set("b")

	assert.Equal(t, "b", <-s1.C())
	assert.Equal(t, "b", <-s2.C())
	assert.Equal(t, 2, v.Subscribers())
}

func TestUpdate_AppliesOnCurrent(t *testing.T) {
	v := NewValue([]int{1})
	got := v.Update(func(cur []int) []int { return append(append([]int(nil), cur...), 2) })

	assert.Equal(t, []int{1, 2}, got)
	assert.Equal(t, []int{1, 2}, v.Get())
}

func TestCancel_ClosesChannel(t *testing.T) {
	v := NewValue(1)
	sub := v.Subscribe()
	<-sub.C()

	sub.Cancel()
	sub.Cancel()

	_, ok := <-sub.C()
	assert.False(t, ok)
	assert.Equal(t, 0, v.Subscribers())

	// Set depois do cancelamento não entra em pânico.
	v.Set(2)
}

func TestClose_EndsSubscribersAndIgnoresSets(t *testing.T) {
	v := NewValue(1)
	sub := v.Subscribe()
	<-sub.C()

	v.Close()
	_, ok := <-sub.C()
	require.False(t, ok)

	v.Set(5)
	assert.Equal(t, 1, v.Get())

	late := v.Subscribe()
	_, ok = <-late.C()
	assert.False(t, ok)
	late.Cancel()
}
