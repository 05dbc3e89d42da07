package session

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"
)

func testLimits() Limits {
	return Limits{MaxTurns: 3, MaxImages: 5}
}

// runRepositoryContract exercises the behaviour every Repository must share.
func runRepositoryContract(t *testing.T, newRepo func(t *testing.T) Repository) {
	t.Run("unknown session is empty", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		history, err := repo.GetHistory(ctx, "missing")
		if err != nil {
			t.Fatalf("GetHistory failed: %v", err)
		}
		if len(history) != 0 {
			t.Errorf("expected empty history, got %d", len(history))
		}

		img, err := repo.GetLatestImage(ctx, "missing")
		if err != nil {
			t.Fatalf("GetLatestImage failed: %v", err)
		}
		if img != nil {
			t.Error("expected no image for unknown session")
		}

		descs, err := repo.GetDescriptions(ctx, "missing")
		if err != nil {
			t.Fatalf("GetDescriptions failed: %v", err)
		}
		if len(descs) != 0 {
			t.Errorf("expected no descriptions, got %d", len(descs))
		}
	})

	t.Run("history keeps most recent entries in order", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		maxHistory := testLimits().MaxHistory()

		for i := 0; i < 11; i++ {
			role := RoleUser
			if i%2 == 1 {
				role = RoleAssistant
			}
			if err := repo.PushHistory(ctx, "s1", Turn{Role: role, Content: fmt.Sprintf("m%d", i)}); err != nil {
				t.Fatalf("PushHistory failed: %v", err)
			}
			history, _ := repo.GetHistory(ctx, "s1")
			if len(history) > maxHistory {
				t.Fatalf("history length %d exceeds bound %d", len(history), maxHistory)
			}
		}

		history, err := repo.GetHistory(ctx, "s1")
		if err != nil {
			t.Fatalf("GetHistory failed: %v", err)
		}
		if len(history) != maxHistory {
			t.Fatalf("expected %d entries, got %d", maxHistory, len(history))
		}
		for i, turn := range history {
			want := fmt.Sprintf("m%d", 11-maxHistory+i)
			if turn.Content != want {
				t.Errorf("entry %d: expected %s, got %s", i, want, turn.Content)
			}
		}
	})

	t.Run("push of a turn pair is kept together", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		err := repo.PushHistory(ctx, "pair",
			Turn{Role: RoleUser, Content: "q"},
			Turn{Role: RoleAssistant, Content: "a"},
		)
		if err != nil {
			t.Fatalf("PushHistory failed: %v", err)
		}
		history, _ := repo.GetHistory(ctx, "pair")
		if len(history) != 2 {
			t.Fatalf("expected 2 entries, got %d", len(history))
		}
		if history[0].Role != RoleUser || history[1].Role != RoleAssistant {
			t.Errorf("unexpected roles: %s, %s", history[0].Role, history[1].Role)
		}
	})

	t.Run("images and descriptions stay aligned", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		maxImages := testLimits().MaxImages
		base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

		for i := 0; i < 8; i++ {
			img := Image{Data: fmt.Sprintf("img%d", i), CapturedAt: base.Add(time.Duration(i) * time.Second)}
			if err := repo.AddImageAndDescription(ctx, "s2", img, fmt.Sprintf("desc%d", i)); err != nil {
				t.Fatalf("AddImageAndDescription failed: %v", err)
			}
		}

		descs, err := repo.GetDescriptions(ctx, "s2")
		if err != nil {
			t.Fatalf("GetDescriptions failed: %v", err)
		}
		if len(descs) != maxImages {
			t.Fatalf("expected %d descriptions, got %d", maxImages, len(descs))
		}
		for i, d := range descs {
			want := fmt.Sprintf("desc%d", 8-maxImages+i)
			if d != want {
				t.Errorf("description %d: expected %s, got %s", i, want, d)
			}
		}

		latest, err := repo.GetLatestImage(ctx, "s2")
		if err != nil {
			t.Fatalf("GetLatestImage failed: %v", err)
		}
		if latest == nil || latest.Data != "img7" {
			t.Fatalf("expected latest image img7, got %+v", latest)
		}
		if !latest.CapturedAt.Equal(base.Add(7 * time.Second)) {
			t.Errorf("unexpected capture time %v", latest.CapturedAt)
		}
	})

	t.Run("reset is idempotent", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		if err := repo.Reset(ctx, "never-seen"); err != nil {
			t.Fatalf("Reset on unknown session failed: %v", err)
		}
		history, err := repo.GetHistory(ctx, "never-seen")
		if err != nil {
			t.Fatalf("GetHistory failed: %v", err)
		}
		if len(history) != 0 {
			t.Errorf("expected empty history, got %d", len(history))
		}

		repo.PushHistory(ctx, "s3", Turn{Role: RoleUser, Content: "hi"})
		repo.AddImageAndDescription(ctx, "s3", Image{Data: "img"}, "desc")
		if err := repo.Reset(ctx, "s3"); err != nil {
			t.Fatalf("Reset failed: %v", err)
		}
		if err := repo.Reset(ctx, "s3"); err != nil {
			t.Fatalf("second Reset failed: %v", err)
		}

		history, _ = repo.GetHistory(ctx, "s3")
		img, _ := repo.GetLatestImage(ctx, "s3")
		descs, _ := repo.GetDescriptions(ctx, "s3")
		if len(history) != 0 || img != nil || len(descs) != 0 {
			t.Error("expected all state removed after reset")
		}
	})

	t.Run("sessions are isolated", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		repo.PushHistory(ctx, "a", Turn{Role: RoleUser, Content: "from a"})
		repo.AddImageAndDescription(ctx, "a", Image{Data: "a-img"}, "a-desc")

		history, _ := repo.GetHistory(ctx, "b")
		img, _ := repo.GetLatestImage(ctx, "b")
		if len(history) != 0 || img != nil {
			t.Error("session b should not see session a state")
		}
	})
}

func TestMemoryStore_Contract(t *testing.T) {
	runRepositoryContract(t, func(t *testing.T) Repository {
		return NewMemoryStore(testLimits())
	})
}

func TestNewMemoryStore_DefaultLimits(t *testing.T) {
	store := NewMemoryStore(Limits{})
	if store.limits.MaxTurns != DefaultMaxTurns {
		t.Errorf("expected MaxTurns %d, got %d", DefaultMaxTurns, store.limits.MaxTurns)
	}
	if store.limits.MaxImages != DefaultMaxImages {
		t.Errorf("expected MaxImages %d, got %d", DefaultMaxImages, store.limits.MaxImages)
	}
}

func TestMemoryStore_GetHistoryReturnsCopy(t *testing.T) {
	store := NewMemoryStore(testLimits())
	ctx := context.Background()
	store.PushHistory(ctx, "s1", Turn{Role: RoleUser, Content: "original"})

	history, _ := store.GetHistory(ctx, "s1")
	history[0].Content = "mutated"

	again, _ := store.GetHistory(ctx, "s1")
	if again[0].Content != "original" {
		t.Errorf("store state was mutated through returned slice: %s", again[0].Content)
	}
}

func TestMemoryStore_LazyCreation(t *testing.T) {
	store := NewMemoryStore(testLimits())
	ctx := context.Background()

	store.GetHistory(ctx, "s1")
	if store.Count() != 0 {
		t.Errorf("reads should not create sessions, got %d", store.Count())
	}

	store.PushHistory(ctx, "s1", Turn{Role: RoleUser, Content: "hi"})
	if store.Count() != 1 {
		t.Errorf("expected 1 session after push, got %d", store.Count())
	}

	store.Reset(ctx, "s1")
	if store.Count() != 0 {
		t.Errorf("expected 0 sessions after reset, got %d", store.Count())
	}
}

func TestMemoryStore_ConcurrentPairsStayAdjacent(t *testing.T) {
	store := NewMemoryStore(Limits{MaxTurns: 100, MaxImages: 5})
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			store.PushHistory(ctx, "shared",
				Turn{Role: RoleUser, Content: fmt.Sprintf("q%d", i)},
				Turn{Role: RoleAssistant, Content: fmt.Sprintf("a%d", i)},
			)
		}(i)
	}
	wg.Wait()

	history, _ := store.GetHistory(ctx, "shared")
	if len(history) != 100 {
		t.Fatalf("expected 100 entries, got %d", len(history))
	}
	for i := 0; i < len(history); i += 2 {
		q, a := history[i].Content, history[i+1].Content
		if q[1:] != a[1:] {
			t.Errorf("pair split at %d: %s followed by %s", i, q, a)
		}
	}
}

func TestLimits_MaxHistory(t *testing.T) {
	if got := (Limits{MaxTurns: 4}).MaxHistory(); got != 8 {
		t.Errorf("expected 8, got %d", got)
	}
	if got := (Limits{}).MaxHistory(); got != 2*DefaultMaxTurns {
		t.Errorf("expected default %d, got %d", 2*DefaultMaxTurns, got)
	}
}

// addImages stores img0..img{n-1} with desc0..desc{n-1}.
func addImages(t *testing.T, repo Repository, sessionID string, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		img := Image{Data: fmt.Sprintf("img%d", i)}
		if err := repo.AddImageAndDescription(context.Background(), sessionID, img, fmt.Sprintf("desc%d", i)); err != nil {
			t.Fatalf("AddImageAndDescription failed: %v", err)
		}
	}
}

// assertImageBound checks both lists hold exactly the last maxImages pushes,
// index-aligned.
func assertImageBound(t *testing.T, images []Image, descs []string, pushed, maxImages int) {
	t.Helper()
	if len(images) != maxImages {
		t.Fatalf("expected %d images, got %d", maxImages, len(images))
	}
	if len(descs) != maxImages {
		t.Fatalf("expected %d descriptions, got %d", maxImages, len(descs))
	}
	for i := range images {
		n := pushed - maxImages + i
		if want := fmt.Sprintf("img%d", n); images[i].Data != want {
			t.Errorf("image %d: expected %s, got %s", i, want, images[i].Data)
		}
		if want := fmt.Sprintf("desc%d", n); descs[i] != want {
			t.Errorf("description %d: expected %s, got %s", i, want, descs[i])
		}
	}
}

func TestMemoryStore_ImageBound(t *testing.T) {
	store := NewMemoryStore(testLimits())
	addImages(t, store, "s2", 8)

	store.mu.RLock()
	st := store.sessions["s2"]
	images := append([]Image(nil), st.images...)
	descs := append([]string(nil), st.descriptions...)
	store.mu.RUnlock()

	assertImageBound(t, images, descs, 8, testLimits().MaxImages)
}
