package playback

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mindovermyth/sessionhub/internal/usage"
	"github.com/mindovermyth/sessionhub/pkg/kv"
)

const testSession = "sess-1"

type fakeRecorder struct {
	calls chan string
}

func newFakeRecorder() *fakeRecorder {
	return &fakeRecorder{calls: make(chan string, 8)}
}

func (f *fakeRecorder) Record(_ context.Context, contentID string) usage.Result {
	f.calls <- contentID
	return usage.Result{Delivered: true}
}

func (f *fakeRecorder) waitForCall(t *testing.T) string {
	t.Helper()
	select {
	case id := <-f.calls:
		return id
	case <-time.After(2 * time.Second):
		t.Fatal("usage recorder was not invoked")
		return ""
	}
}

func newTestService(t *testing.T, mirror kv.Mirror, rec usage.Recorder) Service {
	t.Helper()
	svc, err := NewService(mirror, rec, nil, nil, nil)
	require.NoError(t, err)
	return svc
}

func sampleTrack(id string) Track {
	return Track{
		ContentID: id,
		Title:     "Episode " + id,
		Author:    "Narrator",
		SourceURL: "https://cdn.example.com/audio/" + id + ".mp3",
		CoverURL:  "covers/" + id + ".jpg",
	}
}

func TestPlayReplacesSlotWholesale(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc := newTestService(t, kv.NewMemory(), nil)

	_, accepted, err := svc.Play(ctx, testSession, sampleTrack("a"))
	require.NoError(t, err)
	require.True(t, accepted)

	state, accepted, err := svc.Play(ctx, testSession, sampleTrack("b"))
	require.NoError(t, err)
	require.True(t, accepted)
	require.True(t, state.Playing)
	require.Equal(t, "b", state.Track.ContentID)

	current, err := svc.Current(ctx, testSession)
	require.NoError(t, err)
	require.Equal(t, "b", current.Track.ContentID)
}

func TestPlayWithoutSourceIsNoOp(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	rec := newFakeRecorder()
	svc := newTestService(t, kv.NewMemory(), rec)

	_, accepted, err := svc.Play(ctx, testSession, sampleTrack("a"))
	require.NoError(t, err)
	require.True(t, accepted)
	rec.waitForCall(t)

	track := sampleTrack("b")
	track.SourceURL = "  "
	state, accepted, err := svc.Play(ctx, testSession, track)
	require.NoError(t, err)
	require.False(t, accepted)
	require.True(t, state.Playing)
	require.Equal(t, "a", state.Track.ContentID)

	select {
	case id := <-rec.calls:
		t.Fatalf("unexpected usage call for %q", id)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestStopClearsSlot(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc := newTestService(t, kv.NewMemory(), nil)

	_, _, err := svc.Play(ctx, testSession, sampleTrack("a"))
	require.NoError(t, err)

	state, err := svc.Stop(ctx, testSession)
	require.NoError(t, err)
	require.False(t, state.Playing)

	current, err := svc.Current(ctx, testSession)
	require.NoError(t, err)
	require.False(t, current.Playing)
	require.Empty(t, current.Track.ContentID)
}

func TestPlayDispatchesUsageNotification(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	rec := newFakeRecorder()
	svc := newTestService(t, kv.NewMemory(), rec)

	_, _, err := svc.Play(ctx, testSession, sampleTrack("track-7"))
	require.NoError(t, err)
	require.Equal(t, "track-7", rec.waitForCall(t))
}

func TestSlotSurvivesServiceRestart(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	mirror := kv.NewMemory()

	first := newTestService(t, mirror, nil)
	_, _, err := first.Play(ctx, testSession, sampleTrack("a"))
	require.NoError(t, err)

	second := newTestService(t, mirror, nil)
	state, err := second.Current(ctx, testSession)
	require.NoError(t, err)
	require.True(t, state.Playing)
	require.Equal(t, "a", state.Track.ContentID)
}

func TestCorruptSlotTreatedAsIdle(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	mirror := kv.NewMemory()
	require.NoError(t, mirror.Set(ctx, kv.PlaybackKey(testSession), "{not json"))

	svc := newTestService(t, mirror, nil)
	state, err := svc.Current(ctx, testSession)
	require.NoError(t, err)
	require.False(t, state.Playing)
}

func TestSessionsAreIsolated(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc := newTestService(t, kv.NewMemory(), nil)

	_, _, err := svc.Play(ctx, "sess-a", sampleTrack("a"))
	require.NoError(t, err)

	state, err := svc.Current(ctx, "sess-b")
	require.NoError(t, err)
	require.False(t, state.Playing)
}

func TestRequiresSessionID(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, kv.NewMemory(), nil)
	_, _, err := svc.Play(context.Background(), " ", sampleTrack("a"))
	require.Error(t, err)
}
