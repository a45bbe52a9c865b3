package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sant0-9/soapflow/internal/asmr"
	"github.com/sant0-9/soapflow/internal/gateway"
	"github.com/sant0-9/soapflow/internal/history"
	"github.com/sant0-9/soapflow/internal/imageinput"
	"github.com/sant0-9/soapflow/internal/templates"
)

type fakeGateway struct {
	mu sync.Mutex

	extract func(feedback string) (string, error)
	rewrite func(ctx context.Context, toneBlock, master string) (string, error)
	refine  func(current, instruction string) (string, error)

	feedbacks []string
	tones     []string
}

func (f *fakeGateway) ExtractToneBlock(_ context.Context, _ []byte, _, tpl, feedback string) (string, error) {
	f.mu.Lock()
	f.feedbacks = append(f.feedbacks, feedback)
	f.tones = append(f.tones, tpl)
	f.mu.Unlock()
	if f.extract == nil {
		return "tone", nil
	}
	return f.extract(feedback)
}

func (f *fakeGateway) RewriteMasterPrompt(ctx context.Context, toneBlock, master string) (string, error) {
	if f.rewrite == nil {
		return "rewritten " + master + " with " + toneBlock, nil
	}
	return f.rewrite(ctx, toneBlock, master)
}

func (f *fakeGateway) RefinePrompt(_ context.Context, current, instruction string) (string, error) {
	if f.refine == nil {
		return current + " / " + instruction, nil
	}
	return f.refine(current, instruction)
}

type staticTemplates struct{}

func (staticTemplates) Current() templates.PromptTemplates {
	masters := make(map[asmr.ContentType]string)
	for _, ct := range asmr.ContentTypes {
		masters[ct] = "master:" + string(ct)
	}
	return templates.PromptTemplates{
		ToneBlockTemplate: "Soap: ___",
		MasterPrompts:     masters,
	}
}

func newTestController(t *testing.T, gw Gateway, hist history.Store) *Controller {
	t.Helper()
	log, _ := test.NewNullLogger()
	n := 0
	ms := int64(1700000000000)
	return New(gw, staticTemplates{}, hist,
		WithLogger(log),
		WithSessionIDs(func() string {
			n++
			return fmt.Sprintf("s%d", n)
		}),
		WithClock(func() time.Time {
			ms++
			return time.UnixMilli(ms)
		}),
	)
}

func testImage(name string) *imageinput.Image {
	return &imageinput.Image{Name: name, MimeType: "image/png", Data: []byte(name)}
}

func run(t *testing.T, c *Controller, req *Request) bool {
	t.Helper()
	require.NotNil(t, req)
	return c.Apply(req.Run(context.Background()))
}

// toSuccess drives a controller through select, extract and approve.
func toSuccess(t *testing.T, c *Controller) {
	t.Helper()
	require.True(t, run(t, c, c.SelectImage(testImage("a.png"))))
	req, err := c.Approve()
	require.NoError(t, err)
	require.True(t, run(t, c, req))
	require.Equal(t, Success, c.State().Status)
}

func TestScenarioUploadEditApproveNewSession(t *testing.T) {
	gw := &fakeGateway{extract: func(string) (string, error) { return "T1", nil }}
	hist := history.NewMemoryStore()
	c := newTestController(t, gw, hist)

	req := c.SelectImage(testImage("a.png"))
	assert.Equal(t, AnalyzingTone, c.State().Status)

	require.True(t, run(t, c, req))
	st := c.State()
	assert.Equal(t, ReviewTone, st.Status)
	assert.Equal(t, "T1", st.ToneBlock)

	c.EditToneBlock("T2")

	req, err := c.Approve()
	require.NoError(t, err)
	assert.Equal(t, GeneratingPrompts, c.State().Status)
	require.True(t, run(t, c, req))

	st = c.State()
	assert.Equal(t, Success, st.Status)
	require.NotNil(t, st.Result)
	assert.Equal(t, "T2", st.Result.FinalToneBlock)
	assert.True(t, st.Result.Complete())
	for _, ct := range asmr.ContentTypes {
		assert.Equal(t, "rewritten master:"+string(ct)+" with T2", st.Result.Prompts[ct])
	}

	item, err := c.NewSession(context.Background())
	require.NoError(t, err)
	require.NotNil(t, item)
	assert.Equal(t, "T2", item.Result.FinalToneBlock)

	items, err := history.Collect(context.Background(), hist)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, st.Result.Prompts, items[0].Result.Prompts)

	st = c.State()
	assert.Equal(t, Idle, st.Status)
	assert.Nil(t, st.Result)
	assert.Nil(t, st.Image)
	assert.Empty(t, st.ToneBlock)
}

func TestSelectImageUsesToneTemplate(t *testing.T) {
	gw := &fakeGateway{}
	c := newTestController(t, gw, history.NewMemoryStore())

	run(t, c, c.SelectImage(testImage("a.png")))
	require.Len(t, gw.tones, 1)
	assert.Equal(t, "Soap: ___", gw.tones[0])
	assert.Equal(t, []string{""}, gw.feedbacks)
}

func permutations(in []asmr.ContentType) [][]asmr.ContentType {
	if len(in) <= 1 {
		return [][]asmr.ContentType{append([]asmr.ContentType(nil), in...)}
	}
	var out [][]asmr.ContentType
	for i := range in {
		rest := make([]asmr.ContentType, 0, len(in)-1)
		rest = append(rest, in[:i]...)
		rest = append(rest, in[i+1:]...)
		for _, p := range permutations(rest) {
			out = append(out, append([]asmr.ContentType{in[i]}, p...))
		}
	}
	return out
}

func TestRewriteArrivalOrderDoesNotMatter(t *testing.T) {
	perms := permutations(asmr.ContentTypes)
	require.Len(t, perms, 24)

	for _, order := range perms {
		t.Run(fmt.Sprint(order), func(t *testing.T) {
			gates := make(map[asmr.ContentType]chan struct{})
			for _, ct := range asmr.ContentTypes {
				gates[ct] = make(chan struct{})
			}
			returned := make(chan asmr.ContentType)

			gw := &fakeGateway{
				rewrite: func(_ context.Context, tone, master string) (string, error) {
					ct := asmr.ContentType(strings.TrimPrefix(master, "master:"))
					<-gates[ct]
					defer func() { returned <- ct }()
					return "prompt for " + string(ct), nil
				},
			}
			c := newTestController(t, gw, history.NewMemoryStore())
			run(t, c, c.SelectImage(testImage("a.png")))

			req, err := c.Approve()
			require.NoError(t, err)

			events := make(chan Event, 1)
			go func() { events <- req.Run(context.Background()) }()

			for _, ct := range order {
				close(gates[ct])
				assert.Equal(t, ct, <-returned)
			}

			require.True(t, c.Apply(<-events))
			st := c.State()
			require.Equal(t, Success, st.Status)
			require.Len(t, st.Result.Prompts, 4)
			for _, ct := range asmr.ContentTypes {
				assert.Equal(t, "prompt for "+string(ct), st.Result.Prompts[ct])
			}
		})
	}
}

func TestRewriteFailureAbortsBatch(t *testing.T) {
	boom := errors.New("quota exceeded")
	var calls sync.WaitGroup
	calls.Add(len(asmr.ContentTypes))

	gw := &fakeGateway{
		rewrite: func(ctx context.Context, tone, master string) (string, error) {
			calls.Done()
			if master == "master:"+string(asmr.StarchCore) {
				return "", &gateway.Error{Op: gateway.OpRewrite, Err: boom}
			}
			<-ctx.Done()
			return "", ctx.Err()
		},
	}
	c := newTestController(t, gw, history.NewMemoryStore())
	run(t, c, c.SelectImage(testImage("a.png")))

	req, err := c.Approve()
	require.NoError(t, err)
	ev := req.Run(context.Background())
	calls.Wait()

	gen, ok := ev.(PromptsGenerated)
	require.True(t, ok)
	assert.Nil(t, gen.Prompts)
	assert.ErrorIs(t, gen.Err, boom)

	require.True(t, c.Apply(ev))
	st := c.State()
	assert.Equal(t, ReviewTone, st.Status)
	assert.Nil(t, st.Result)
	assert.Equal(t, "Failed to generate master prompts. quota exceeded", st.Err)
	assert.Equal(t, "tone", st.ToneBlock)
}

func TestRewriteFailureKeepsPreviousResult(t *testing.T) {
	gw := &fakeGateway{}
	c := newTestController(t, gw, history.NewMemoryStore())
	toSuccess(t, c)
	before := c.State().Result

	gw.rewrite = func(context.Context, string, string) (string, error) {
		return "", errors.New("down")
	}
	req, err := c.Approve()
	require.NoError(t, err)
	require.True(t, run(t, c, req))

	st := c.State()
	assert.Equal(t, ReviewTone, st.Status)
	assert.Equal(t, before, st.Result)
	assert.NotEmpty(t, st.Err)
}

func TestIncompletePromptSetIsRejected(t *testing.T) {
	tests := []struct {
		name    string
		prompts map[asmr.ContentType]string
	}{
		{name: "nil map", prompts: nil},
		{name: "missing type", prompts: map[asmr.ContentType]string{
			asmr.DustCore:   "d",
			asmr.ClayCore:   "c",
			asmr.StarchCore: "s",
		}},
		{name: "unknown type", prompts: map[asmr.ContentType]string{
			asmr.DustCore:    "d",
			asmr.ClayCore:    "c",
			asmr.StarchCore:  "s",
			asmr.CuttingSoap: "x",
			"Foam Core":      "f",
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestController(t, &fakeGateway{}, history.NewMemoryStore())
			toSuccess(t, c)
			before := c.State().Result

			req, err := c.Approve()
			require.NoError(t, err)
			require.True(t, c.Apply(PromptsGenerated{
				Session:        req.Session,
				Prompts:        tt.prompts,
				FinalToneBlock: "T",
			}))

			st := c.State()
			assert.Equal(t, ReviewTone, st.Status)
			assert.Equal(t, before, st.Result)
			assert.Contains(t, st.Err, "Failed to generate master prompts.")
		})
	}
}

func TestExtractionFailure(t *testing.T) {
	t.Run("first extraction goes to error", func(t *testing.T) {
		gw := &fakeGateway{extract: func(string) (string, error) {
			return "", &gateway.Error{Op: gateway.OpExtract, Err: gateway.ErrEmptyResponse}
		}}
		c := newTestController(t, gw, history.NewMemoryStore())

		require.True(t, run(t, c, c.SelectImage(testImage("a.png"))))
		st := c.State()
		assert.Equal(t, Error, st.Status)
		assert.Equal(t, "Failed to analyze image. The model returned nothing.", st.Err)
		assert.NotNil(t, st.Image)
		assert.Empty(t, st.ToneBlock)

		gw.extract = nil
		req := c.Regenerate("")
		require.NotNil(t, req)
		require.True(t, run(t, c, req))
		st = c.State()
		assert.Equal(t, ReviewTone, st.Status)
		assert.Empty(t, st.Err)
	})

	t.Run("regeneration keeps tone block", func(t *testing.T) {
		gw := &fakeGateway{extract: func(string) (string, error) { return "T1", nil }}
		c := newTestController(t, gw, history.NewMemoryStore())
		run(t, c, c.SelectImage(testImage("a.png")))

		gw.extract = func(string) (string, error) { return "", errors.New("network down") }
		req := c.Regenerate("change count to 8")
		require.NotNil(t, req)
		assert.Equal(t, AnalyzingTone, c.State().Status)
		require.True(t, run(t, c, req))

		st := c.State()
		assert.Equal(t, ReviewTone, st.Status)
		assert.Equal(t, "T1", st.ToneBlock)
		assert.Equal(t, "Failed to regenerate. network down", st.Err)
		assert.Equal(t, "change count to 8", gw.feedbacks[1])
	})
}

func TestDismissErrorKeepsStatus(t *testing.T) {
	gw := &fakeGateway{extract: func(string) (string, error) { return "T1", nil }}
	c := newTestController(t, gw, history.NewMemoryStore())
	run(t, c, c.SelectImage(testImage("a.png")))

	gw.extract = func(string) (string, error) { return "", errors.New("quota") }
	run(t, c, c.Regenerate(""))
	require.NotEmpty(t, c.State().Err)

	c.DismissError()
	st := c.State()
	assert.Empty(t, st.Err)
	assert.Equal(t, ReviewTone, st.Status)
	assert.Equal(t, "T1", st.ToneBlock)
}

func TestRegenerateWithoutImageIsNoop(t *testing.T) {
	gw := &fakeGateway{}
	hist := history.NewMemoryStore()
	c := newTestController(t, gw, hist)
	toSuccess(t, c)

	items, err := history.Collect(context.Background(), hist)
	require.NoError(t, err)
	require.Empty(t, items)

	_, err = c.NewSession(context.Background())
	require.NoError(t, err)
	items, _ = history.Collect(context.Background(), hist)
	require.NoError(t, c.Restore(context.Background(), items[0].ID))

	before := c.State()
	require.Nil(t, before.Image)
	calls := len(gw.feedbacks)

	assert.Nil(t, c.Regenerate("change count to 8"))
	assert.Equal(t, before, c.State())
	assert.Len(t, gw.feedbacks, calls)

	fresh := newTestController(t, gw, hist)
	idle := fresh.State()
	assert.Nil(t, fresh.Regenerate("change count to 8"))
	assert.Equal(t, idle, fresh.State())
}

func TestRegenerateWhileBusyIsNoop(t *testing.T) {
	c := newTestController(t, &fakeGateway{}, history.NewMemoryStore())
	c.SelectImage(testImage("a.png"))

	before := c.State()
	assert.Nil(t, c.Regenerate("again"))
	assert.Equal(t, before, c.State())
}

func TestEditToneBlockDuringRegenerationLaterWriteWins(t *testing.T) {
	gw := &fakeGateway{extract: func(string) (string, error) { return "T1", nil }}
	c := newTestController(t, gw, history.NewMemoryStore())
	run(t, c, c.SelectImage(testImage("a.png")))

	gw.extract = func(string) (string, error) { return "T3", nil }
	req := c.Regenerate("")
	c.EditToneBlock("T2")
	assert.Equal(t, "T2", c.State().ToneBlock)

	require.True(t, run(t, c, req))
	assert.Equal(t, "T3", c.State().ToneBlock)
}

func TestApproveGuards(t *testing.T) {
	c := newTestController(t, &fakeGateway{}, history.NewMemoryStore())

	_, err := c.Approve()
	assert.ErrorIs(t, err, ErrNothingToApprove)

	c.SelectImage(testImage("a.png"))
	_, err = c.Approve()
	assert.ErrorIs(t, err, ErrNothingToApprove)
}

func TestStaleResponsesAreDropped(t *testing.T) {
	t.Run("new session during extraction", func(t *testing.T) {
		c := newTestController(t, &fakeGateway{}, history.NewMemoryStore())
		req := c.SelectImage(testImage("a.png"))

		_, err := c.NewSession(context.Background())
		require.NoError(t, err)
		idle := c.State()

		assert.False(t, run(t, c, req))
		assert.Equal(t, idle, c.State())
	})

	t.Run("new image during extraction", func(t *testing.T) {
		gw := &fakeGateway{}
		c := newTestController(t, gw, history.NewMemoryStore())
		old := c.SelectImage(testImage("a.png"))

		gw.extract = func(string) (string, error) { return "for b", nil }
		current := c.SelectImage(testImage("b.png"))

		gw.extract = func(string) (string, error) { return "for a", nil }
		assert.False(t, run(t, c, old))
		assert.Equal(t, AnalyzingTone, c.State().Status)

		gw.extract = func(string) (string, error) { return "for b", nil }
		assert.True(t, run(t, c, current))
		assert.Equal(t, "for b", c.State().ToneBlock)
	})

	t.Run("restore during generation", func(t *testing.T) {
		hist := history.NewMemoryStore()
		c := newTestController(t, &fakeGateway{}, hist)
		toSuccess(t, c)
		_, err := c.NewSession(context.Background())
		require.NoError(t, err)
		items, _ := history.Collect(context.Background(), hist)

		run(t, c, c.SelectImage(testImage("b.png")))
		req, err := c.Approve()
		require.NoError(t, err)

		require.NoError(t, c.Restore(context.Background(), items[0].ID))
		restored := c.State()
		assert.False(t, run(t, c, req))
		assert.Equal(t, restored, c.State())
	})

	t.Run("duplicate completion", func(t *testing.T) {
		c := newTestController(t, &fakeGateway{}, history.NewMemoryStore())
		req := c.SelectImage(testImage("a.png"))
		ev := req.Run(context.Background())

		assert.True(t, c.Apply(ev))
		assert.False(t, c.Apply(ev))
	})
}

func TestEditPrompt(t *testing.T) {
	c := newTestController(t, &fakeGateway{}, history.NewMemoryStore())
	assert.ErrorIs(t, c.EditPrompt(asmr.DustCore, "x"), ErrNoResult)

	toSuccess(t, c)
	before := c.State().Result

	require.NoError(t, c.EditPrompt(asmr.ClayCore, "hand edited"))
	after := c.State().Result
	assert.Equal(t, "hand edited", after.Prompts[asmr.ClayCore])
	for _, ct := range []asmr.ContentType{asmr.DustCore, asmr.StarchCore, asmr.CuttingSoap} {
		assert.Equal(t, before.Prompts[ct], after.Prompts[ct])
	}

	assert.ErrorIs(t, c.EditPrompt("Glitter Core", "x"), templates.ErrUnknownContentType)
}

func TestRefine(t *testing.T) {
	gw := &fakeGateway{}
	c := newTestController(t, gw, history.NewMemoryStore())

	_, err := c.Refine(asmr.DustCore, "slower")
	assert.ErrorIs(t, err, ErrNoResult)

	toSuccess(t, c)
	original := c.State().Result.Prompts[asmr.DustCore]

	_, err = c.Refine(asmr.DustCore, "   ")
	assert.ErrorIs(t, err, ErrEmptyInstruction)

	req, err := c.Refine(asmr.DustCore, "slower")
	require.NoError(t, err)
	st := c.State()
	assert.True(t, st.Refining)
	assert.Equal(t, asmr.DustCore, st.RefiningType)
	assert.Equal(t, Success, st.Status)

	_, err = c.Refine(asmr.ClayCore, "faster")
	assert.ErrorIs(t, err, ErrBusy)
	_, err = c.Approve()
	assert.ErrorIs(t, err, ErrBusy)

	require.True(t, run(t, c, req))
	st = c.State()
	assert.False(t, st.Refining)
	assert.Equal(t, original+" / slower", st.Result.Prompts[asmr.DustCore])
}

func TestRefineFailureLeavesResult(t *testing.T) {
	gw := &fakeGateway{}
	c := newTestController(t, gw, history.NewMemoryStore())
	toSuccess(t, c)
	before := c.State().Result

	gw.refine = func(string, string) (string, error) {
		return "", &gateway.Error{Op: gateway.OpRefine, Err: errors.New("500")}
	}
	req, err := c.Refine(asmr.CuttingSoap, "brighter")
	require.NoError(t, err)
	require.True(t, run(t, c, req))

	st := c.State()
	assert.Equal(t, Success, st.Status)
	assert.False(t, st.Refining)
	assert.Equal(t, before, st.Result)
	assert.Equal(t, "Failed to refine Cutting Soap prompt. 500", st.Err)

	c.DismissError()
	assert.Empty(t, c.State().Err)
}

func TestNewSessionHistoryRules(t *testing.T) {
	ctx := context.Background()

	t.Run("no result appends nothing", func(t *testing.T) {
		hist := history.NewMemoryStore()
		c := newTestController(t, &fakeGateway{}, hist)
		item, err := c.NewSession(ctx)
		require.NoError(t, err)
		assert.Nil(t, item)
		assert.Equal(t, 0, hist.Len())
	})

	t.Run("restore then new session appends nothing", func(t *testing.T) {
		hist := history.NewMemoryStore()
		c := newTestController(t, &fakeGateway{}, hist)
		toSuccess(t, c)
		saved, err := c.NewSession(ctx)
		require.NoError(t, err)
		require.Equal(t, 1, hist.Len())

		require.NoError(t, c.Restore(ctx, saved.ID))
		st := c.State()
		assert.Equal(t, Success, st.Status)
		assert.Equal(t, saved.ID, st.LoadedHistoryID)
		assert.Equal(t, saved.Result.FinalToneBlock, st.ToneBlock)
		assert.Nil(t, st.Image)

		item, err := c.NewSession(ctx)
		require.NoError(t, err)
		assert.Nil(t, item)
		assert.Equal(t, 1, hist.Len())
	})

	changes := []struct {
		name   string
		change func(t *testing.T, c *Controller)
	}{
		{
			name: "edit",
			change: func(t *testing.T, c *Controller) {
				require.NoError(t, c.EditPrompt(asmr.DustCore, "edited"))
			},
		},
		{
			name: "refine",
			change: func(t *testing.T, c *Controller) {
				req, err := c.Refine(asmr.DustCore, "more dust")
				require.NoError(t, err)
				run(t, c, req)
			},
		},
		{
			name: "refine that fails",
			change: func(t *testing.T, c *Controller) {
				req, err := c.Refine(asmr.DustCore, "more dust")
				require.NoError(t, err)
				c.Apply(PromptRefined{Session: req.Session, Type: asmr.DustCore, Err: errors.New("x")})
			},
		},
	}

	for _, tt := range changes {
		t.Run("restore then "+tt.name+" appends one", func(t *testing.T) {
			hist := history.NewMemoryStore()
			c := newTestController(t, &fakeGateway{}, hist)
			toSuccess(t, c)
			saved, err := c.NewSession(ctx)
			require.NoError(t, err)

			require.NoError(t, c.Restore(ctx, saved.ID))
			tt.change(t, c)
			assert.Empty(t, c.State().LoadedHistoryID)

			item, err := c.NewSession(ctx)
			require.NoError(t, err)
			require.NotNil(t, item)
			assert.NotEqual(t, saved.ID, item.ID)
			assert.Equal(t, 2, hist.Len())
		})
	}
}

func TestRestoreIsADeepCopy(t *testing.T) {
	ctx := context.Background()
	hist := history.NewMemoryStore()
	c := newTestController(t, &fakeGateway{}, hist)
	toSuccess(t, c)
	saved, err := c.NewSession(ctx)
	require.NoError(t, err)

	require.NoError(t, c.Restore(ctx, saved.ID))
	require.NoError(t, c.EditPrompt(asmr.DustCore, "changed"))

	stored, err := hist.Get(ctx, saved.ID)
	require.NoError(t, err)
	assert.Equal(t, saved.Result.Prompts[asmr.DustCore], stored.Result.Prompts[asmr.DustCore])

	st := c.State()
	st.Result.Prompts[asmr.ClayCore] = "mutated outside"
	assert.NotEqual(t, "mutated outside", c.State().Result.Prompts[asmr.ClayCore])
}

func TestRestoreUnknown(t *testing.T) {
	c := newTestController(t, &fakeGateway{}, history.NewMemoryStore())
	before := c.State()
	assert.ErrorIs(t, c.Restore(context.Background(), "nope"), history.ErrNotFound)
	assert.Equal(t, before, c.State())
}

func TestDeleteLoadedHistoryKeepsResult(t *testing.T) {
	ctx := context.Background()
	hist := history.NewMemoryStore()
	c := newTestController(t, &fakeGateway{}, hist)
	toSuccess(t, c)
	saved, err := c.NewSession(ctx)
	require.NoError(t, err)
	require.NoError(t, c.Restore(ctx, saved.ID))
	before := c.State()

	require.NoError(t, c.DeleteHistory(ctx, saved.ID))
	st := c.State()
	assert.Empty(t, st.LoadedHistoryID)
	assert.Equal(t, before.Result, st.Result)
	assert.Equal(t, Success, st.Status)
	assert.Equal(t, 0, hist.Len())

	// The result is now unsaved, so the next new session keeps it.
	item, err := c.NewSession(ctx)
	require.NoError(t, err)
	assert.NotNil(t, item)
}

type failingStore struct {
	*history.MemoryStore
}

func (failingStore) Append(context.Context, history.Item) error {
	return errors.New("disk full")
}

func TestNewSessionAppendFailureKeepsState(t *testing.T) {
	c := newTestController(t, &fakeGateway{}, failingStore{history.NewMemoryStore()})
	toSuccess(t, c)
	before := c.State()

	item, err := c.NewSession(context.Background())
	require.Error(t, err)
	assert.Nil(t, item)

	st := c.State()
	assert.Equal(t, Success, st.Status)
	assert.Equal(t, before.Result, st.Result)
	assert.Equal(t, before.Session, st.Session)
	assert.Contains(t, st.Err, "disk full")
}

func TestStatusString(t *testing.T) {
	assert.Equal(t, "review_tone", ReviewTone.String())
	assert.Equal(t, "unknown", Status(99).String())
	assert.True(t, GeneratingPrompts.Busy())
	assert.False(t, Success.Busy())
}
