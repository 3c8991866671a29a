package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/joelfuller2016/swarmbot/pkg/dispatch"
	"github.com/joelfuller2016/swarmbot/pkg/match"
	"github.com/joelfuller2016/swarmbot/pkg/models"
	"github.com/joelfuller2016/swarmbot/pkg/store"
	"github.com/joelfuller2016/swarmbot/pkg/usage"
)

const (
	// DirectThreshold: above it the top match is invoked without asking
	// the LLM.
	DirectThreshold = 0.6
	// HintThreshold: matches in (HintThreshold, DirectThreshold] produce
	// a system hint turn listing candidates for the LLM.
	HintThreshold = 0.4
	// MaxChainLength caps tool-chain execution. Excess entries are
	// dropped, not erred.
	MaxChainLength = 5
	// hintCandidates is how many candidate tools a hint turn lists.
	hintCandidates = 3

	// previousResultToken in an argument value is replaced with the raw
	// result of the immediately preceding chain entry.
	previousResultToken = "use_previous_result"
	previousResultHole  = "{{previous_result}}"
)

// ToolInvocation is the trace of one executed tool call.
type ToolInvocation struct {
	Tool      string
	Arguments map[string]any
	OK        bool
	Result    string
	Duration  time.Duration
}

// TurnResult is what one call to ProcessTurn produces.
type TurnResult struct {
	Reply       string
	Invocations []ToolInvocation
	Usage       models.TokenUsage
	Iterations  int
}

// Options configures a Session. Provider and Dispatcher are required.
type Options struct {
	Provider      models.Provider
	Dispatcher    dispatch.Dispatcher
	Matcher       *match.Matcher
	SystemPrompt  string
	TokenBudget   int
	MaxIterations int
	GoalDetection bool
	Logger        *zap.Logger
	Store         store.Store // optional transcript persistence
}

// Session drives conversational turns: tool matching, LLM round-trips, tool
// dispatch, and auto-continuation.
type Session struct {
	id         string
	provider   models.Provider
	dispatcher dispatch.Dispatcher
	matcher    *match.Matcher
	history    *History
	state      AutoContinuationState
	system     string
	logger     *zap.Logger
	store      store.Store
}

func New(opts Options) (*Session, error) {
	if opts.Provider == nil {
		return nil, errors.New("session: provider is required")
	}
	if opts.Dispatcher == nil {
		return nil, errors.New("session: dispatcher is required")
	}
	matcher := opts.Matcher
	if matcher == nil {
		matcher = match.NewMatcher()
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	system := opts.SystemPrompt
	if system == "" {
		system = DefaultSystemPrompt
	}
	return &Session{
		id:         uuid.NewString(),
		provider:   opts.Provider,
		dispatcher: opts.Dispatcher,
		matcher:    matcher,
		history:    NewHistory(opts.TokenBudget),
		state:      NewAutoContinuationState(opts.MaxIterations, opts.GoalDetection),
		system:     system,
		logger:     logger,
		store:      opts.Store,
	}, nil
}

// ID returns the session identifier used for persistence.
func (s *Session) ID() string { return s.id }

// History returns a copy of the conversation so far.
func (s *Session) History() []Turn { return s.history.Turns() }

// ProcessTurn drives one human-initiated turn to completion, including any
// auto-continuation iterations. Only provider failures are returned as
// errors; every tool-level failure is folded into the reply text.
func (s *Session) ProcessTurn(ctx context.Context, userInput string) (TurnResult, error) {
	userInput = strings.TrimSpace(userInput)
	if userInput == "" {
		return TurnResult{}, errors.New("session: empty input")
	}

	s.state = s.state.ResetForHumanTurn()

	catalog, err := s.dispatcher.Catalog(ctx)
	if err != nil {
		// A catalog failure degrades to an LLM-only turn.
		s.logger.Warn("tool catalog unavailable", zap.Error(err))
		catalog = nil
	}

	s.appendTurn(ctx, RoleUser, userInput)

	var result TurnResult
	parsed, err := s.selectAction(ctx, userInput, catalog, &result)
	if err != nil {
		return TurnResult{}, err
	}

	for {
		finalText, err := s.resolveAction(ctx, parsed, catalog, &result)
		if err != nil {
			return TurnResult{}, err
		}

		next, prompt, continuing := s.state.Advance(finalText, s.history.Turns())
		s.state = next
		if !continuing {
			result.Reply = finalText
			return result, nil
		}

		result.Iterations++
		s.logger.Debug("auto-continuing",
			zap.String("session", s.id),
			zap.Int("iteration", s.state.IterationCount),
			zap.String("prompt", prompt))
		s.appendTurn(ctx, RoleUser, prompt)

		// Synthesized continuations skip tool matching and go straight
		// to the LLM.
		text, err := s.roundTrip(ctx, catalog, &result)
		if err != nil {
			return TurnResult{}, err
		}
		parsed = ParseResponse(text)
	}
}

// selectAction runs the tool matcher and, when no direct match wins, the
// first LLM round-trip.
func (s *Session) selectAction(ctx context.Context, userInput string, catalog []match.ToolDescriptor, result *TurnResult) (ParsedResponse, error) {
	matches := s.matcher.FindMatchingTools(userInput, catalog)
	if len(matches) > 0 && matches[0].Confidence > DirectThreshold {
		top := matches[0]
		s.logger.Debug("direct tool match",
			zap.String("tool", top.ToolName),
			zap.Float64("confidence", top.Confidence),
			zap.String("reasoning", top.Reasoning))
		return ParsedResponse{
			Kind:      SingleTool,
			Call:      ToolCall{Tool: top.ToolName, Arguments: top.SuggestedArguments},
			Reasoning: top.Reasoning,
		}, nil
	}

	if len(matches) > 0 && matches[0].Confidence > HintThreshold {
		s.appendTurn(ctx, RoleSystem, hintTurn(matches))
	}

	text, err := s.roundTrip(ctx, catalog, result)
	if err != nil {
		return ParsedResponse{}, err
	}
	return ParseResponse(text), nil
}

// resolveAction turns a parsed response into final text, executing tools and
// summarizing when needed.
func (s *Session) resolveAction(ctx context.Context, parsed ParsedResponse, catalog []match.ToolDescriptor, result *TurnResult) (string, error) {
	if parsed.Kind == PlainText {
		s.appendTurn(ctx, RoleAssistant, parsed.Text)
		return parsed.Text, nil
	}

	calls := parsed.Chain
	if parsed.Kind == SingleTool {
		calls = []ToolCall{parsed.Call}
	}
	if len(calls) > MaxChainLength {
		s.logger.Warn("tool chain truncated",
			zap.Int("requested", len(calls)),
			zap.Int("executed", MaxChainLength))
		calls = calls[:MaxChainLength]
	}

	invocations := s.executeCalls(ctx, calls)
	result.Invocations = append(result.Invocations, invocations...)

	s.appendTurn(ctx, RoleAssistant, describeCalls(calls))
	s.appendTurn(ctx, RoleSystem, "Tool results:\n"+formatInvocations(invocations)+
		"\nSummarize these results for the user in natural language.")

	summary, err := s.roundTrip(ctx, catalog, result)
	if err != nil {
		return "", err
	}
	s.appendTurn(ctx, RoleAssistant, summary)
	return summary, nil
}

// executeCalls dispatches each entry in order. A failed entry is recorded
// and the chain continues.
func (s *Session) executeCalls(ctx context.Context, calls []ToolCall) []ToolInvocation {
	invocations := make([]ToolInvocation, 0, len(calls))
	var prevResult string
	for i, call := range calls {
		args := call.Arguments
		if i > 0 {
			args = substitutePrevious(args, prevResult)
		}
		if args == nil {
			args = map[string]any{}
		}

		start := time.Now()
		ok, res := s.dispatcher.Execute(ctx, call.Tool, args)
		inv := ToolInvocation{
			Tool:      call.Tool,
			Arguments: args,
			OK:        ok,
			Result:    res,
			Duration:  time.Since(start),
		}
		invocations = append(invocations, inv)
		prevResult = res

		s.logger.Info("tool executed",
			zap.String("session", s.id),
			zap.String("tool", call.Tool),
			zap.Bool("ok", ok),
			zap.Duration("duration", inv.Duration))
		s.logToolCall(ctx, inv)
	}
	return invocations
}

// roundTrip renders the history and calls the provider once. Provider
// failures propagate to the caller.
func (s *Session) roundTrip(ctx context.Context, catalog []match.ToolDescriptor, result *TurnResult) (string, error) {
	prompt := RenderPrompt(s.system, catalog, s.history.Turns())
	completion, err := s.provider.Generate(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("provider %s: %w", s.provider.Name(), err)
	}
	result.Usage.PromptTokens += completion.Usage.PromptTokens
	result.Usage.CompletionTokens += completion.Usage.CompletionTokens
	s.logUsage(ctx, completion.Usage)
	return completion.Text, nil
}

// substitutePrevious replaces the previous-result token in argument values.
// Only the immediately preceding entry's result is available. The input map
// is not mutated.
func substitutePrevious(args map[string]any, prevResult string) map[string]any {
	if len(args) == 0 {
		return args
	}
	out := make(map[string]any, len(args))
	for k, v := range args {
		str, isString := v.(string)
		if !isString {
			out[k] = v
			continue
		}
		switch {
		case str == previousResultToken:
			out[k] = prevResult
		case strings.Contains(str, previousResultHole):
			out[k] = strings.ReplaceAll(str, previousResultHole, prevResult)
		default:
			out[k] = v
		}
	}
	return out
}

func hintTurn(matches []match.ToolMatch) string {
	n := len(matches)
	if n > hintCandidates {
		n = hintCandidates
	}
	names := make([]string, 0, n)
	for _, m := range matches[:n] {
		names = append(names, m.ToolName)
	}
	return "Candidate tools for this request: " + strings.Join(names, ", ") +
		". Invoke one of them if appropriate."
}

func describeCalls(calls []ToolCall) string {
	var sb strings.Builder
	sb.WriteString("Invoking tools:\n")
	for _, c := range calls {
		args, err := json.Marshal(c.Arguments)
		if err != nil {
			args = []byte("{}")
		}
		fmt.Fprintf(&sb, "- %s %s\n", c.Tool, args)
	}
	return strings.TrimRight(sb.String(), "\n")
}

// formatInvocations renders tool results for the summary round-trip. A
// panic while formatting becomes a visible error string instead of aborting
// the turn.
func formatInvocations(invocations []ToolInvocation) (out string) {
	defer func() {
		if r := recover(); r != nil {
			out = fmt.Sprintf("error formatting tool results: %v", r)
		}
	}()
	var sb strings.Builder
	for i, inv := range invocations {
		status := "ok"
		if !inv.OK {
			status = "error"
		}
		fmt.Fprintf(&sb, "%d. %s (%s): %s\n", i+1, inv.Tool, status, inv.Result)
	}
	return strings.TrimRight(sb.String(), "\n")
}

func (s *Session) appendTurn(ctx context.Context, role Role, content string) {
	s.history.Append(role, content)
	if s.store == nil {
		return
	}
	err := s.store.LogMessage(ctx, store.Message{
		SessionID: s.id,
		Role:      string(role),
		Content:   content,
	})
	if err != nil {
		s.logger.Warn("persist message", zap.Error(err))
	}
}

func (s *Session) logToolCall(ctx context.Context, inv ToolInvocation) {
	if s.store == nil {
		return
	}
	args, err := json.Marshal(inv.Arguments)
	if err != nil {
		args = []byte("{}")
	}
	err = s.store.LogToolCall(ctx, store.ToolCall{
		SessionID:  s.id,
		Tool:       inv.Tool,
		Arguments:  string(args),
		OK:         inv.OK,
		Result:     inv.Result,
		DurationMS: inv.Duration.Milliseconds(),
	})
	if err != nil {
		s.logger.Warn("persist tool call", zap.Error(err))
	}
}

func (s *Session) logUsage(ctx context.Context, u models.TokenUsage) {
	if s.store == nil {
		return
	}
	err := s.store.LogUsage(ctx, store.Usage{
		SessionID:        s.id,
		Provider:         s.provider.Name(),
		Model:            s.provider.Model(),
		PromptTokens:     u.PromptTokens,
		CompletionTokens: u.CompletionTokens,
		Cost:             usage.Cost(s.provider.Model(), u.PromptTokens, u.CompletionTokens),
	})
	if err != nil {
		s.logger.Warn("persist usage", zap.Error(err))
	}
}
