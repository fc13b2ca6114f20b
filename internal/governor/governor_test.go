package governor

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ozekimasaki/lazyload/internal/config"
)

func testManager() *Manager {
	return NewManager(config.GovernorConfig{NovelExploreLimit: 8, NovelSynthesizeLimit: 15, TotalHardCap: 25})
}

func TestSession_StaysInExploreUnderLimit(t *testing.T) {
	_, sess := testManager().NewSession()
	for i := 0; i < 5; i++ {
		_, state, err := sess.Call("search_symbols", fmt.Sprintf("target-%d", i), fmt.Sprintf("key-%d", i), func() (string, error) {
			return "ok", nil
		})
		require.NoError(t, err)
		require.Equal(t, StateExplore, state)
	}
}

func TestSession_TransitionsToSynthesizeAfterNovelExploreLimit(t *testing.T) {
	_, sess := testManager().NewSession()
	var lastState State
	for i := 0; i < 10; i++ {
		_, state, err := sess.Call("search_symbols", fmt.Sprintf("target-%d", i), fmt.Sprintf("key-%d", i), func() (string, error) {
			return "ok", nil
		})
		require.NoError(t, err)
		lastState = state
	}
	require.Equal(t, StateSynthesize, lastState)
}

func TestSession_FinalizeShortCircuitsHandler(t *testing.T) {
	_, sess := testManager().NewSession()
	handlerCalls := 0
	for i := 0; i < 16; i++ {
		_, _, err := sess.Call("search_symbols", fmt.Sprintf("target-%d", i), fmt.Sprintf("key-%d", i), func() (string, error) {
			handlerCalls++
			return "ok", nil
		})
		require.NoError(t, err)
	}
	require.Equal(t, 16, handlerCalls, "16 unique novel targets must all run the handler")

	resp, state, err := sess.Call("search_symbols", "target-16", "key-16", func() (string, error) {
		handlerCalls++
		return "should not run", nil
	})
	require.NoError(t, err)
	require.Equal(t, StateFinalize, state)
	require.Contains(t, resp, "exploration budget exhausted")
	require.Equal(t, 16, handlerCalls, "the 17th call must not run the handler")
}

func TestSession_EquivalentTargetsCountAsOneNovelEntry(t *testing.T) {
	_, sess := testManager().NewSession()
	for i := 0; i < 15; i++ {
		_, _, err := sess.Call("search_symbols", "same-target", fmt.Sprintf("key-%d", i), func() (string, error) {
			return "ok", nil
		})
		require.NoError(t, err)
	}
	_, state, err := sess.Call("search_symbols", "same-target", "key-final", func() (string, error) {
		return "ok", nil
	})
	require.NoError(t, err)
	require.Equal(t, StateExplore, state, "15 calls to one novel target must still read as explore")
}

func TestSession_CacheHitSkipsHandlerAndMarksResponse(t *testing.T) {
	_, sess := testManager().NewSession()
	calls := 0
	first, _, err := sess.Call("get_function", "foo", "cachekey", func() (string, error) {
		calls++
		return "result", nil
	})
	require.NoError(t, err)
	require.Equal(t, "result", first)

	second, _, err := sess.Call("get_function", "foo", "cachekey", func() (string, error) {
		calls++
		return "should not run", nil
	})
	require.NoError(t, err)
	require.Equal(t, 1, calls)
	require.Contains(t, second, "[Cached call reused]")
}

func TestSession_CacheHitDoesNotConsumeNovelty(t *testing.T) {
	_, sess := testManager().NewSession()
	_, _, err := sess.Call("get_function", "foo", "cachekey", func() (string, error) { return "result", nil })
	require.NoError(t, err)

	for i := 0; i < 20; i++ {
		_, _, err := sess.Call("get_function", "foo", "cachekey", func() (string, error) { return "result", nil })
		require.NoError(t, err)
	}

	require.Equal(t, 1, sess.total)
	require.Equal(t, 1, sess.novelCount)
}

func TestSession_InvalidateCacheForcesReexecution(t *testing.T) {
	_, sess := testManager().NewSession()
	calls := 0
	_, _, err := sess.Call("get_function", "foo", "cachekey", func() (string, error) {
		calls++
		return "result", nil
	})
	require.NoError(t, err)

	sess.InvalidateCache()

	_, _, err = sess.Call("get_function", "foo", "cachekey", func() (string, error) {
		calls++
		return "result", nil
	})
	require.NoError(t, err)
	require.Equal(t, 2, calls)
}

func TestSession_PropagatesHandlerError(t *testing.T) {
	_, sess := testManager().NewSession()
	_, _, err := sess.Call("get_function", "foo", "key", func() (string, error) {
		return "", errors.New("boom")
	})
	require.Error(t, err)
}

func TestManager_GetAndClose(t *testing.T) {
	m := testManager()
	id, sess := m.NewSession()

	got, ok := m.Get(id)
	require.True(t, ok)
	require.Same(t, sess, got)

	m.Close(id)
	_, ok = m.Get(id)
	require.False(t, ok)
}
