// Package scheduler runs profile scans on a cron during market hours,
// sends the daily digest and answers chat commands.
package scheduler

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"TradeScout/internal/analyzer"
	"TradeScout/internal/collector"
	"TradeScout/internal/config"
	"TradeScout/internal/indicator"
	"TradeScout/internal/markethours"
	"TradeScout/internal/model"
	"TradeScout/internal/notifier"
	"TradeScout/internal/portfolio"
	"TradeScout/internal/publisher"
	"TradeScout/internal/recorder"
)

// Options are the scan parameters taken from config.
type Options struct {
	Symbols       []string
	Profiles      []config.Profile
	MinConfidence float64
	MinVolume     float64
	CheckInterval int // minutes
}

// Scheduler manages all cron tasks.
type Scheduler struct {
	Cron      *cron.Cron
	Collector *collector.Collector
	Analyzer  *analyzer.Analyzer
	Portfolio *portfolio.Manager
	Sizer     portfolio.Sizer
	Notifier  notifier.Notifier
	Recorder  recorder.Recorder
	Publisher publisher.Publisher
	Calendar  *markethours.Calendar
	Opts      Options
	Log       zerolog.Logger
	Ctx       context.Context
	Now       func() time.Time

	mu   sync.Mutex
	last map[string]*model.AnalysisResult
}

// NewScheduler creates a new Scheduler. Nil recorder and publisher become no-ops.
func NewScheduler(ctx context.Context, col *collector.Collector, an *analyzer.Analyzer, pm *portfolio.Manager,
	sizer portfolio.Sizer, n notifier.Notifier, rec recorder.Recorder, pub publisher.Publisher,
	cal *markethours.Calendar, opts Options, log zerolog.Logger) *Scheduler {
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	if pub == nil {
		pub = publisher.Noop{}
	}
	return &Scheduler{
		Cron:      cron.New(cron.WithSeconds(), cron.WithLocation(markethours.IST)),
		Collector: col,
		Analyzer:  an,
		Portfolio: pm,
		Sizer:     sizer,
		Notifier:  n,
		Recorder:  rec,
		Publisher: pub,
		Calendar:  cal,
		Opts:      opts,
		Log:       log.With().Str("component", "scheduler").Logger(),
		Ctx:       ctx,
		Now:       time.Now,
		last:      make(map[string]*model.AnalysisResult),
	}
}

// RegisterAll registers the periodic scan and the digest at market close.
func (s *Scheduler) RegisterAll() error {
	interval := s.Opts.CheckInterval
	if interval <= 0 {
		interval = 15
	}
	scanSpec := fmt.Sprintf("0 */%d * * * 1-5", interval)
	if _, err := s.Cron.AddFunc(scanSpec, s.scanTask); err != nil {
		return fmt.Errorf("register scan task: %w", err)
	}
	digestSpec := "0 " + s.Calendar.CloseSpec()
	if _, err := s.Cron.AddFunc(digestSpec, s.digestTask); err != nil {
		return fmt.Errorf("register digest task: %w", err)
	}
	s.Log.Info().Str("scan", scanSpec).Str("digest", digestSpec).Msg("tasks registered")
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	s.Log.Info().Msg("scheduler started")
}

// Stop stops the cron scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	s.Log.Info().Msg("scheduler stopped")
}

func (s *Scheduler) scanTask() {
	now := s.Now()
	if !s.Calendar.IsOpen(now) {
		s.Log.Debug().Time("at", now).Msg("market closed, scan skipped")
		return
	}
	for _, p := range s.Opts.Profiles {
		if p.Enabled {
			s.Scan(s.Ctx, p)
		}
	}
}

// Scan analyzes every symbol for one profile, records and publishes each
// result and alerts the actionable ones. Results are sorted by symbol.
func (s *Scheduler) Scan(ctx context.Context, p config.Profile) []*model.AnalysisResult {
	runID := uuid.NewString()
	log := s.Log.With().Str("profile", p.Name).Str("run_id", runID).Logger()
	log.Info().Int("symbols", len(s.Opts.Symbols)).Msg("scan started")

	series := s.Collector.SeriesMany(ctx, s.Opts.Symbols, p.Period, p.Interval)
	batch := s.Analyzer.AnalyzeBatch(ctx, series)

	results := make([]*model.AnalysisResult, 0, len(batch))
	for _, r := range batch {
		results = append(results, r)
	}
	sort.Slice(results, func(i, j int) bool { return results[i].Symbol < results[j].Symbol })

	alerts := 0
	for _, r := range results {
		s.remember(r)
		if err := s.Recorder.RecordSignal(ctx, runID, r); err != nil {
			log.Error().Err(err).Str("symbol", r.Symbol).Msg("record signal")
		}
		if err := s.Publisher.Publish(ctx, r); err != nil {
			log.Error().Err(err).Str("symbol", r.Symbol).Msg("publish result")
		}
		if !s.alertable(r) {
			continue
		}
		alerts++
		text := fmt.Sprintf("⏱ <b>%s</b> scan\n", p.Name) + notifier.FormatAnalysis(r, s.quantity(r))
		s.trySend(ctx, text)
	}

	msg := fmt.Sprintf("scan %s: %d/%d analyzed, %d alerts", p.Name, len(results), len(s.Opts.Symbols), alerts)
	if err := s.Recorder.RecordLog(ctx, "info", msg); err != nil {
		log.Error().Err(err).Msg("record log")
	}
	log.Info().Int("analyzed", len(results)).Int("alerts", alerts).Msg("scan finished")
	return results
}

// alertable keeps actionable, confident signals on instruments that trade enough volume.
func (s *Scheduler) alertable(r *model.AnalysisResult) bool {
	if !r.Signal.Actionable() || r.Confidence < s.Opts.MinConfidence {
		return false
	}
	if v := r.Details.Volume; v != nil && *v < s.Opts.MinVolume {
		return false
	}
	return true
}

// quantity is the suggested size for a BUY, or 0 when a new position is not allowed.
func (s *Scheduler) quantity(r *model.AnalysisResult) int64 {
	if r.Signal != model.SignalBuy {
		return 0
	}
	if s.Portfolio != nil {
		if ok, _ := s.Portfolio.CanOpen(r.Symbol); !ok {
			return 0
		}
	}
	return s.Sizer.PositionSize(r.Entry, r.StopLoss)
}

func (s *Scheduler) remember(r *model.AnalysisResult) {
	s.mu.Lock()
	s.last[r.Symbol] = r
	s.mu.Unlock()
}

func (s *Scheduler) lastResult(symbol string) (*model.AnalysisResult, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.last[symbol]
	return r, ok
}

func (s *Scheduler) digestTask() {
	now := s.Now().In(markethours.IST)
	if !s.Calendar.IsTradingDay(now) {
		return
	}
	s.sendDigest(s.Ctx, now)
}

func (s *Scheduler) sendDigest(ctx context.Context, now time.Time) {
	ist := now.In(markethours.IST)
	start := time.Date(ist.Year(), ist.Month(), ist.Day(), 0, 0, 0, 0, markethours.IST)
	results, err := s.Recorder.SignalsSince(ctx, start)
	if err != nil {
		s.Log.Error().Err(err).Msg("load digest signals")
		return
	}
	s.trySend(ctx, notifier.FormatDigest(ist, results))
}

// HandleCommand processes a chat command and returns a reply.
func (s *Scheduler) HandleCommand(ctx context.Context, command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return helpText
	}
	args := fields[1:]
	switch strings.ToLower(fields[0]) {
	case "/scan":
		return s.cmdScan(ctx)
	case "/analyze":
		if len(args) == 0 {
			return "usage: /analyze SYMBOL [profile]"
		}
		return s.cmdAnalyze(ctx, args)
	case "/status":
		if s.Portfolio == nil {
			return "portfolio tracking is disabled"
		}
		return notifier.FormatStatus(s.Portfolio.State())
	case "/sentiment":
		return notifier.FormatSentiment(s.Collector.Sentiment(ctx))
	case "/open":
		if len(args) == 0 {
			return "usage: /open SYMBOL"
		}
		return s.cmdOpen(ctx, strings.ToUpper(args[0]))
	case "/close":
		if len(args) == 0 {
			return "usage: /close SYMBOL"
		}
		return s.cmdClose(ctx, strings.ToUpper(args[0]))
	case "/digest":
		s.sendDigest(ctx, s.Now())
		return ""
	default:
		return helpText
	}
}

const helpText = "Commands:\n" +
	"/scan - scan all enabled profiles now\n" +
	"/analyze SYMBOL [profile] - analyze one symbol\n" +
	"/status - open positions\n" +
	"/sentiment - market sentiment\n" +
	"/open SYMBOL - open a position from the last signal\n" +
	"/close SYMBOL - close a position\n" +
	"/digest - today's digest"

func (s *Scheduler) cmdScan(ctx context.Context) string {
	var b strings.Builder
	for _, p := range s.Opts.Profiles {
		if !p.Enabled {
			continue
		}
		results := s.Scan(ctx, p)
		counts := map[model.Signal]int{}
		for _, r := range results {
			counts[r.Signal]++
		}
		fmt.Fprintf(&b, "%s: %d analyzed (BUY %d, SELL %d, HOLD %d)\n", p.Name, len(results),
			counts[model.SignalBuy], counts[model.SignalSell], counts[model.SignalHold])
	}
	if b.Len() == 0 {
		return "no profiles enabled"
	}
	return b.String()
}

func (s *Scheduler) profile(name string) (config.Profile, bool) {
	for _, p := range s.Opts.Profiles {
		if name == "" && p.Enabled || p.Name == name {
			return p, true
		}
	}
	return config.Profile{}, false
}

func (s *Scheduler) cmdAnalyze(ctx context.Context, args []string) string {
	symbol := strings.ToUpper(args[0])
	name := ""
	if len(args) > 1 {
		name = args[1]
	}
	p, ok := s.profile(name)
	if !ok {
		return fmt.Sprintf("unknown profile %q", name)
	}

	series, err := s.Collector.Series(ctx, symbol, p.Period, p.Interval)
	if err != nil {
		return fmt.Sprintf("❌ fetch %s: %v", symbol, err)
	}
	r, err := s.Analyzer.Analyze(symbol, series)
	if err != nil {
		return fmt.Sprintf("❌ analyze %s: %v", symbol, err)
	}
	s.remember(r)

	simple, _ := indicator.Returns(model.Closes(series.Bars))
	reply := notifier.FormatAnalysis(r, s.quantity(r))
	if v := portfolio.ValueAtRisk(simple, 0.95); v > 0 {
		reply += fmt.Sprintf("  VaR(95%%): %.2f%%\n", v*100)
	}
	return reply
}

func (s *Scheduler) cmdOpen(ctx context.Context, symbol string) string {
	if s.Portfolio == nil {
		return "portfolio tracking is disabled"
	}
	r, ok := s.lastResult(symbol)
	if !ok {
		return fmt.Sprintf("no recent analysis for %s, run /analyze first", symbol)
	}
	if r.Signal != model.SignalBuy {
		return fmt.Sprintf("last signal for %s is %s, not BUY", symbol, r.Signal)
	}
	qty := s.Sizer.PositionSize(r.Entry, r.StopLoss)
	if qty <= 0 {
		return fmt.Sprintf("position size for %s is zero", symbol)
	}
	pos := model.Position{
		Symbol: symbol, Side: r.Signal, Quantity: qty,
		Entry: r.Entry, StopLoss: r.StopLoss, Target: r.Target, OpenedAt: s.Now(),
	}
	if err := s.Portfolio.Open(pos); err != nil {
		return fmt.Sprintf("❌ open %s: %v", symbol, err)
	}
	if err := s.Recorder.RecordPosition(ctx, &recorder.PositionEvent{Action: "OPEN", Position: pos}); err != nil {
		s.Log.Error().Err(err).Msg("record position")
	}
	return fmt.Sprintf("✅ opened %s x%d @ %.2f", symbol, qty, pos.Entry)
}

func (s *Scheduler) cmdClose(ctx context.Context, symbol string) string {
	if s.Portfolio == nil {
		return "portfolio tracking is disabled"
	}
	pos, err := s.Portfolio.Close(symbol)
	if err != nil {
		return fmt.Sprintf("❌ close %s: %v", symbol, err)
	}
	if err := s.Recorder.RecordPosition(ctx, &recorder.PositionEvent{Action: "CLOSE", Position: pos}); err != nil {
		s.Log.Error().Err(err).Msg("record position")
	}
	return fmt.Sprintf("✅ closed %s x%d", symbol, pos.Quantity)
}

func (s *Scheduler) trySend(ctx context.Context, text string) {
	if s.Notifier == nil {
		return
	}
	if err := s.Notifier.Send(ctx, text); err != nil {
		s.Log.Error().Err(err).Msg("send notification")
	}
}
