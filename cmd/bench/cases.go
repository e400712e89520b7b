// README: Smoke cases: lifecycle, terminal states, assign race, fare, trending, DB/Redis side effects, throughput.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

const (
	statusPass = "PASS"
	statusFail = "FAIL"
	statusSkip = "SKIP"

	trendingKey = "ranking:trending"
)

type Runner struct {
	cfg   Config
	httpc *http.Client
	db    *pgxpool.Pool
	redis *redis.Client

	token     string
	passenger string
	drivers   []string
	tripID    string
}

type Result struct {
	Name    string
	Status  string
	Latency time.Duration
	Note    string
}

type TestCase struct {
	Name string
	Run  func(ctx context.Context, r *Runner) Result
}

type tripView struct {
	ID            string  `json:"id"`
	DriverID      *string `json:"driver_id"`
	Status        string  `json:"status"`
	StatusVersion int     `json:"status_version"`
}

func NewRunner(cfg Config) *Runner {
	return &Runner{
		cfg:   cfg,
		httpc: &http.Client{Timeout: 10 * time.Second},
	}
}

func (r *Runner) RunAll(ctx context.Context) []Result {
	if r.cfg.DSN != "" {
		if db, err := pgxpool.New(ctx, r.cfg.DSN); err == nil {
			r.db = db
		}
	}
	if r.cfg.RedisAddr != "" {
		r.redis = redis.NewClient(&redis.Options{Addr: r.cfg.RedisAddr})
	}

	tests := r.cases()
	results := make([]Result, 0, len(tests))

	for _, tc := range tests {
		res := tc.Run(ctx, r)
		res.Name = tc.Name
		results = append(results, res)
		fmt.Printf("%-5s %s", res.Status, tc.Name)
		if res.Latency > 0 {
			fmt.Printf(" (%s)", res.Latency)
		}
		if res.Note != "" {
			fmt.Printf(" - %s", res.Note)
		}
		fmt.Println()
	}

	if r.db != nil {
		r.db.Close()
	}
	if r.redis != nil {
		_ = r.redis.Close()
	}
	return results
}

func (r *Runner) cases() []TestCase {
	return []TestCase{
		{Name: "Env: API health", Run: checkHealth},
		{Name: "Env: Postgres connect", Run: checkPostgres},
		{Name: "Env: Redis connect", Run: checkRedis},
		{Name: "Setup: register passenger and drivers", Run: setupUsers},
		{Name: "Trip: full lifecycle", Run: tripLifecycle},
		{Name: "Trip: completed cannot be cancelled", Run: terminalCancel},
		{Name: "Trip: cannot start without driver", Run: startWithoutDriver},
		{Name: "Consistency: events match status_version", Run: eventsConsistent},
		{Name: "Rating: rate completed trip once", Run: rateOnce},
		{Name: "Concurrency: one winner for racing assigns", Run: assignRace},
		{Name: "Concurrency: start vs cancel", Run: startCancelRace},
		{Name: "Pricing: fare quote with surge", Run: fareQuote},
		{Name: "Ranking: trending drivers", Run: trending},
		{Name: "Ranking: trending cached in Redis", Run: trendingCached},
		{Name: "Perf: trip create throughput", Run: createThroughput},
	}
}

func checkHealth(ctx context.Context, r *Runner) Result {
	start := time.Now()
	status, err := r.call(ctx, http.MethodGet, "/health", nil, nil)
	if err != nil {
		return fail(err.Error())
	}
	if status != http.StatusOK {
		return failf("status=%d", status)
	}
	return Result{Status: statusPass, Latency: time.Since(start)}
}

func checkPostgres(ctx context.Context, r *Runner) Result {
	if r.db == nil {
		return skip("dsn not configured")
	}
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := r.db.Ping(ctx); err != nil {
		return fail(err.Error())
	}
	return pass("")
}

func checkRedis(ctx context.Context, r *Runner) Result {
	if r.redis == nil {
		return skip("redis not configured")
	}
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := r.redis.Ping(ctx).Err(); err != nil {
		return fail(err.Error())
	}
	return pass("")
}

// setupUsers registers one passenger and enough drivers for the race, then
// exchanges the passenger's credentials for a token when the server issues them.
func setupUsers(ctx context.Context, r *Runner) Result {
	suffix := time.Now().UnixNano()
	id, err := r.register(ctx, fmt.Sprintf("bench-p-%d", suffix), false)
	if err != nil {
		return fail(err.Error())
	}
	r.passenger = id

	n := r.cfg.Concurrency
	if n < 2 {
		n = 2
	}
	r.drivers = r.drivers[:0]
	for i := range n {
		id, err := r.register(ctx, fmt.Sprintf("bench-d-%d-%d", suffix, i), true)
		if err != nil {
			return fail(err.Error())
		}
		r.drivers = append(r.drivers, id)
	}

	var tok struct {
		AccessToken string `json:"access_token"`
	}
	status, err := r.call(ctx, http.MethodPost, "/api/auth/token", map[string]any{
		"username": fmt.Sprintf("bench-p-%d", suffix),
		"password": r.cfg.Password,
	}, &tok)
	if err != nil {
		return fail(err.Error())
	}
	switch status {
	case http.StatusOK:
		r.token = tok.AccessToken
		return pass(fmt.Sprintf("drivers=%d auth=jwt", len(r.drivers)))
	case http.StatusNotFound:
		return pass(fmt.Sprintf("drivers=%d auth=none", len(r.drivers)))
	default:
		return failf("token status=%d", status)
	}
}

func tripLifecycle(ctx context.Context, r *Runner) Result {
	if len(r.drivers) == 0 {
		return skip("setup failed")
	}
	start := time.Now()
	t, err := r.createTrip(ctx)
	if err != nil {
		return fail(err.Error())
	}
	steps := []struct {
		path string
		body any
		want string
	}{
		{"/assign", map[string]any{"driver_id": r.drivers[0]}, "PENDING"},
		{"/start", nil, "ONGOING"},
		{"/complete", nil, "COMPLETED"},
	}
	for _, s := range steps {
		var out tripView
		status, err := r.call(ctx, http.MethodPost, "/api/trips/"+t.ID+s.path, s.body, &out)
		if err != nil {
			return fail(err.Error())
		}
		if status != http.StatusOK || out.Status != s.want {
			return failf("%s: status=%d trip=%s", s.path, status, out.Status)
		}
	}

	var got tripView
	if _, err := r.call(ctx, http.MethodGet, "/api/trips/"+t.ID, nil, &got); err != nil {
		return fail(err.Error())
	}
	if got.Status != "COMPLETED" || got.StatusVersion != 3 {
		return failf("final status=%s version=%d", got.Status, got.StatusVersion)
	}
	r.tripID = t.ID
	return Result{Status: statusPass, Latency: time.Since(start)}
}

func terminalCancel(ctx context.Context, r *Runner) Result {
	if r.tripID == "" {
		return skip("no completed trip")
	}
	status, err := r.call(ctx, http.MethodPost, "/api/trips/"+r.tripID+"/cancel", nil, nil)
	if err != nil {
		return fail(err.Error())
	}
	return expectStatus(status, http.StatusConflict)
}

func startWithoutDriver(ctx context.Context, r *Runner) Result {
	if r.passenger == "" {
		return skip("setup failed")
	}
	t, err := r.createTrip(ctx)
	if err != nil {
		return fail(err.Error())
	}
	status, err := r.call(ctx, http.MethodPost, "/api/trips/"+t.ID+"/start", nil, nil)
	if err != nil {
		return fail(err.Error())
	}
	_, _ = r.call(ctx, http.MethodPost, "/api/trips/"+t.ID+"/cancel", nil, nil)
	return expectStatus(status, http.StatusConflict)
}

// eventsConsistent checks that every committed transition left one audit row.
func eventsConsistent(ctx context.Context, r *Runner) Result {
	if r.db == nil {
		return skip("dsn not configured")
	}
	if r.tripID == "" {
		return skip("no completed trip")
	}
	var (
		status  string
		version int
		events  int
		last    string
	)
	err := r.db.QueryRow(ctx, `
		SELECT t.status, t.status_version,
		       (SELECT COUNT(*) FROM trip_events e WHERE e.trip_id = t.id),
		       (SELECT e.to_status FROM trip_events e WHERE e.trip_id = t.id ORDER BY e.id DESC LIMIT 1)
		FROM trips t WHERE t.id = $1::uuid`, r.tripID,
	).Scan(&status, &version, &events, &last)
	if err != nil {
		return fail(err.Error())
	}
	// One event for creation plus one per committed change.
	if events != version+1 || last != status {
		return failf("status=%s version=%d events=%d last=%s", status, version, events, last)
	}
	return pass(fmt.Sprintf("events=%d", events))
}

func rateOnce(ctx context.Context, r *Runner) Result {
	if r.tripID == "" {
		return skip("no completed trip")
	}
	body := map[string]any{"score": 5, "comment": "smooth ride"}
	status, err := r.call(ctx, http.MethodPost, "/api/trips/"+r.tripID+"/rating", body, nil)
	if err != nil {
		return fail(err.Error())
	}
	if status != http.StatusCreated {
		return failf("first rating status=%d", status)
	}
	status, err = r.call(ctx, http.MethodPost, "/api/trips/"+r.tripID+"/rating", body, nil)
	if err != nil {
		return fail(err.Error())
	}
	return expectStatus(status, http.StatusConflict)
}

func assignRace(ctx context.Context, r *Runner) Result {
	if len(r.drivers) < 2 {
		return skip("setup failed")
	}
	t, err := r.createTrip(ctx)
	if err != nil {
		return fail(err.Error())
	}
	defer r.call(ctx, http.MethodPost, "/api/trips/"+t.ID+"/cancel", nil, nil)

	var succ, conflict, other atomic.Int32
	start := make(chan struct{})
	var wg sync.WaitGroup
	for _, driverID := range r.drivers {
		wg.Add(1)
		go func(driverID string) {
			defer wg.Done()
			<-start
			status, err := r.call(ctx, http.MethodPost, "/api/trips/"+t.ID+"/assign", map[string]any{"driver_id": driverID}, nil)
			switch {
			case err != nil:
				other.Add(1)
			case status == http.StatusOK:
				succ.Add(1)
			case status == http.StatusConflict:
				conflict.Add(1)
			default:
				other.Add(1)
			}
		}(driverID)
	}
	close(start)
	wg.Wait()

	note := fmt.Sprintf("success=%d conflict=%d other=%d", succ.Load(), conflict.Load(), other.Load())
	if succ.Load() != 1 || other.Load() != 0 {
		return fail(note)
	}
	return pass(note)
}

func startCancelRace(ctx context.Context, r *Runner) Result {
	if len(r.drivers) < 2 {
		return skip("setup failed")
	}
	t, err := r.createTrip(ctx)
	if err != nil {
		return fail(err.Error())
	}
	if status, err := r.call(ctx, http.MethodPost, "/api/trips/"+t.ID+"/assign", map[string]any{"driver_id": r.drivers[1]}, nil); err != nil || status != http.StatusOK {
		return failf("assign status=%d err=%v", status, err)
	}

	var startStatus, cancelStatus int
	var wg sync.WaitGroup
	start := make(chan struct{})
	wg.Add(2)
	go func() {
		defer wg.Done()
		<-start
		startStatus, _ = r.call(ctx, http.MethodPost, "/api/trips/"+t.ID+"/start", nil, nil)
	}()
	go func() {
		defer wg.Done()
		<-start
		cancelStatus, _ = r.call(ctx, http.MethodPost, "/api/trips/"+t.ID+"/cancel", nil, nil)
	}()
	close(start)
	wg.Wait()

	var final tripView
	if _, err := r.call(ctx, http.MethodGet, "/api/trips/"+t.ID, nil, &final); err != nil {
		return fail(err.Error())
	}
	note := fmt.Sprintf("start=%d cancel=%d final=%s", startStatus, cancelStatus, final.Status)
	switch final.Status {
	case "ONGOING":
		// Cancel may still win after start: ONGOING -> CANCELLED is legal.
		if startStatus == http.StatusOK && cancelStatus == http.StatusConflict {
			_, _ = r.call(ctx, http.MethodPost, "/api/trips/"+t.ID+"/cancel", nil, nil)
			return pass(note)
		}
	case "CANCELLED":
		if cancelStatus == http.StatusOK {
			return pass(note)
		}
	}
	return fail(note)
}

func fareQuote(ctx context.Context, r *Runner) Result {
	if len(r.drivers) == 0 {
		return skip("setup failed")
	}
	t, err := r.createTrip(ctx)
	if err != nil {
		return fail(err.Error())
	}
	defer r.call(ctx, http.MethodPost, "/api/trips/"+t.ID+"/cancel", nil, nil)

	if status, err := r.call(ctx, http.MethodPost, "/api/trips/"+t.ID+"/assign", map[string]any{"driver_id": r.drivers[0]}, nil); err != nil || status != http.StatusOK {
		return failf("assign status=%d err=%v", status, err)
	}

	var quote struct {
		ActiveTrips int `json:"active_trips"`
		Fare        struct {
			Amount int64 `json:"amount"`
		} `json:"fare"`
	}
	start := time.Now()
	status, err := r.call(ctx, http.MethodGet, "/api/trips/"+t.ID+"/fare", nil, &quote)
	if err != nil {
		return fail(err.Error())
	}
	if status != http.StatusOK {
		return failf("status=%d", status)
	}
	want := r.cfg.BaseFare * int64(10+quote.ActiveTrips) / 10
	if quote.ActiveTrips < 1 || quote.Fare.Amount != want {
		return failf("active=%d fare=%d want=%d", quote.ActiveTrips, quote.Fare.Amount, want)
	}
	return Result{Status: statusPass, Latency: time.Since(start), Note: fmt.Sprintf("active=%d fare=%d", quote.ActiveTrips, quote.Fare.Amount)}
}

func trending(ctx context.Context, r *Runner) Result {
	var drivers []struct {
		ID       string  `json:"id"`
		AvgScore float64 `json:"avg_score"`
	}
	start := time.Now()
	status, err := r.call(ctx, http.MethodGet, "/api/drivers/trending", nil, &drivers)
	if err != nil {
		return fail(err.Error())
	}
	if status != http.StatusOK {
		return failf("status=%d", status)
	}
	if len(drivers) > 5 {
		return failf("got %d drivers", len(drivers))
	}
	for i := 1; i < len(drivers); i++ {
		if drivers[i].AvgScore > drivers[i-1].AvgScore {
			return failf("not sorted at %d", i)
		}
	}
	return Result{Status: statusPass, Latency: time.Since(start), Note: fmt.Sprintf("drivers=%d", len(drivers))}
}

func trendingCached(ctx context.Context, r *Runner) Result {
	if r.redis == nil {
		return skip("redis not configured")
	}
	if _, err := r.call(ctx, http.MethodGet, "/api/drivers/trending", nil, nil); err != nil {
		return fail(err.Error())
	}
	n, err := r.redis.Exists(ctx, trendingKey).Result()
	if err != nil {
		return fail(err.Error())
	}
	if n != 1 {
		return fail("trending key missing")
	}
	return pass("")
}

func createThroughput(ctx context.Context, r *Runner) Result {
	if r.passenger == "" {
		return skip("setup failed")
	}
	end := time.Now().Add(r.cfg.Duration)
	var count, errCount atomic.Int64
	var wg sync.WaitGroup

	for range r.cfg.Concurrency {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for time.Now().Before(end) && ctx.Err() == nil {
				status, err := r.call(ctx, http.MethodPost, "/api/trips", map[string]any{"passenger_id": r.passenger}, nil)
				if err != nil || status != http.StatusCreated {
					errCount.Add(1)
					continue
				}
				count.Add(1)
			}
		}()
	}
	wg.Wait()

	if count.Load() == 0 {
		return fail("no requests completed")
	}
	rps := float64(count.Load()) / r.cfg.Duration.Seconds()
	return pass(fmt.Sprintf("rps=%.1f errors=%d", rps, errCount.Load()))
}

func (r *Runner) register(ctx context.Context, username string, driver bool) (string, error) {
	var u struct {
		ID string `json:"id"`
	}
	status, err := r.call(ctx, http.MethodPost, "/api/users", map[string]any{
		"username":   username,
		"password":   r.cfg.Password,
		"first_name": "Bench",
		"last_name":  username,
		"is_driver":  driver,
	}, &u)
	if err != nil {
		return "", err
	}
	if status != http.StatusCreated {
		return "", fmt.Errorf("register %s: status=%d", username, status)
	}
	return u.ID, nil
}

func (r *Runner) createTrip(ctx context.Context) (tripView, error) {
	var t tripView
	status, err := r.call(ctx, http.MethodPost, "/api/trips", map[string]any{"passenger_id": r.passenger}, &t)
	if err != nil {
		return t, err
	}
	if status != http.StatusCreated {
		return t, fmt.Errorf("create trip: status=%d", status)
	}
	return t, nil
}

// call sends body as JSON and decodes a 2xx response into out when out is non-nil.
func (r *Runner) call(ctx context.Context, method, path string, body, out any) (int, error) {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return 0, err
		}
		reader = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, r.cfg.BaseURL+path, reader)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	if r.token != "" {
		req.Header.Set("Authorization", "Bearer "+r.token)
	}
	resp, err := r.httpc.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if out != nil && resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, fmt.Errorf("decode %s %s: %w", method, path, err)
		}
		return resp.StatusCode, nil
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode, nil
}

func expectStatus(got, want int) Result {
	if got != want {
		return failf("status=%d want=%d", got, want)
	}
	return pass(fmt.Sprintf("status=%d", got))
}

func pass(note string) Result { return Result{Status: statusPass, Note: note} }
func fail(note string) Result { return Result{Status: statusFail, Note: note} }
func skip(note string) Result { return Result{Status: statusSkip, Note: note} }

func failf(format string, args ...any) Result {
	return fail(fmt.Sprintf(format, args...))
}
