// Command allocctl drives the allocation API from the terminal: roster
// inspection, membership changes, transfers, the allocation overview and
// salary breakdowns.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/yukikurage/team-allocation-api/internal/allocation"
	"github.com/yukikurage/team-allocation-api/internal/capacity"
	"github.com/yukikurage/team-allocation-api/internal/config"
	"github.com/yukikurage/team-allocation-api/internal/dto"
	"github.com/yukikurage/team-allocation-api/internal/logging"
	"github.com/yukikurage/team-allocation-api/internal/membership"
	"github.com/yukikurage/team-allocation-api/internal/salary"
	"github.com/yukikurage/team-allocation-api/internal/teamclient"
	"github.com/yukikurage/team-allocation-api/internal/transfer"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	log, err := logging.New("release", cfg.LogLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer log.Sync() //nolint:errcheck

	app := newApp(cfg, log)
	defer app.close()

	if err := app.run(context.Background(), os.Args[1:], os.Stdout); err != nil {
		log.Error("command failed", zap.Error(err))
		os.Exit(1)
	}
}

type app struct {
	client      *teamclient.Client
	store       *membership.Store
	coordinator *transfer.Coordinator
	timeout     time.Duration
	closers     []func()
}

func newApp(cfg *config.Config, log *zap.Logger) *app {
	a := &app{
		client:  teamclient.New(cfg.Client.APIBaseURL, teamclient.WithTimeout(cfg.Client.Timeout), teamclient.WithLogger(log)),
		timeout: cfg.Client.Timeout,
	}

	var cache membership.RosterCache = membership.NewMemoryCache()
	if cfg.Redis.Enabled {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		cache = membership.NewRedisCache(rdb, cfg.Redis.RosterTTL)
		a.closers = append(a.closers, func() { rdb.Close() })
	}

	a.store = membership.NewStore(a.client,
		membership.WithCache(cache),
		membership.WithCapacity(capacity.Validator{
			MaxTeamSize:        cfg.Team.MaxTeamSize,
			NearCapacityMargin: capacity.DefaultNearCapacityMargin,
			MaxManagers:        cfg.Team.MaxManagers,
		}),
		membership.WithLogger(log),
	)
	a.closers = append(a.closers, a.store.Close)
	a.coordinator = transfer.NewCoordinator(a.store, a.client, transfer.WithLogger(log))
	return a
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

func usage(w io.Writer) {
	fmt.Fprintln(w, `usage: allocctl <command> [flags]

commands:
  roster    -project ID
  add       -project ID -user ID -role ROLE [-alloc PCT] [-lead]
  remove    -project ID -user ID
  transfer  -user ID -from ID -to ID [-role ROLE]
  retry-removal -user ID -from ID -to ID
  overview  [-search TEXT] [-role ROLE] [-department ID] [-domain ID] [-server]
  salary    -ctc AMOUNT -tier TIER [-variable AMOUNT]`)
}

func (a *app) run(ctx context.Context, args []string, out io.Writer) error {
	if len(args) == 0 {
		usage(out)
		return errors.New("missing command")
	}
	cmd, rest := args[0], args[1:]
	fs := flag.NewFlagSet(cmd, flag.ContinueOnError)
	fs.SetOutput(out)

	ctx, cancel := context.WithTimeout(ctx, a.timeout*4)
	defer cancel()

	switch cmd {
	case "roster":
		project := fs.Uint64("project", 0, "project ID")
		if err := fs.Parse(rest); err != nil {
			return err
		}
		roster, err := a.store.GetRoster(ctx, *project)
		if err != nil {
			return err
		}
		return writeJSON(out, roster)

	case "add":
		project := fs.Uint64("project", 0, "project ID")
		user := fs.Uint64("user", 0, "user ID")
		role := fs.String("role", "", "role on the project")
		pct := fs.Int("alloc", 100, "allocation percentage")
		lead := fs.Bool("lead", false, "mark as team lead")
		if err := fs.Parse(rest); err != nil {
			return err
		}
		m, err := a.store.Add(ctx, membership.AddRequest{
			ProjectID:            *project,
			UserID:               *user,
			Role:                 *role,
			IsTeamLead:           *lead,
			AllocationPercentage: *pct,
		})
		if err != nil {
			return err
		}
		return writeJSON(out, m)

	case "remove":
		project := fs.Uint64("project", 0, "project ID")
		user := fs.Uint64("user", 0, "user ID")
		if err := fs.Parse(rest); err != nil {
			return err
		}
		if err := a.store.Remove(ctx, *project, *user); err != nil {
			return err
		}
		return writeJSON(out, map[string]bool{"ok": true})

	case "transfer":
		user := fs.Uint64("user", 0, "user ID")
		from := fs.Uint64("from", 0, "source project ID")
		to := fs.Uint64("to", 0, "target project ID")
		role := fs.String("role", "", "role on the target project (default: keep)")
		if err := fs.Parse(rest); err != nil {
			return err
		}
		req := transfer.Request{UserID: *user, SourceProjectID: *from, TargetProjectID: *to, Role: *role}
		res, err := a.coordinator.Transfer(ctx, req)
		var partial *transfer.PartialTransferError
		if errors.As(err, &partial) {
			fmt.Fprintf(out, "user %d is on both projects %d and %d; run: allocctl retry-removal -user %d -from %d -to %d\n",
				partial.UserID, partial.SourceProjectID, partial.TargetProjectID,
				partial.UserID, partial.SourceProjectID, partial.TargetProjectID)
			return err
		}
		if err != nil {
			return err
		}
		return writeJSON(out, res)

	case "retry-removal":
		user := fs.Uint64("user", 0, "user ID")
		from := fs.Uint64("from", 0, "source project ID")
		to := fs.Uint64("to", 0, "target project ID")
		if err := fs.Parse(rest); err != nil {
			return err
		}
		err := a.coordinator.RetryRemoval(ctx, &transfer.PartialTransferError{
			UserID:          *user,
			SourceProjectID: *from,
			TargetProjectID: *to,
		})
		if err != nil {
			return err
		}
		return writeJSON(out, map[string]string{"state": string(transfer.StateDone)})

	case "overview":
		var filter allocation.Filter
		fs.StringVar(&filter.Search, "search", "", "name or email substring")
		fs.StringVar(&filter.Role, "role", "", "role filter")
		fs.Uint64Var(&filter.DepartmentID, "department", 0, "department ID")
		fs.Uint64Var(&filter.DomainID, "domain", 0, "domain ID")
		remote := fs.Bool("server", false, "let the server aggregate")
		if err := fs.Parse(rest); err != nil {
			return err
		}
		var (
			overview allocation.Overview
			err      error
		)
		if *remote {
			overview, err = a.client.Overview(ctx, filter)
		} else {
			overview, err = a.localOverview(ctx, filter)
		}
		if err != nil {
			return err
		}
		return writeJSON(out, overview)

	case "salary":
		ctc := fs.Float64("ctc", 0, "annual CTC")
		tier := fs.String("tier", string(salary.TierE1), "experience tier")
		variable := fs.Float64("variable", salary.DefaultVariableCTC, "annual variable component")
		if err := fs.Parse(rest); err != nil {
			return err
		}
		t, ok := salary.ParseTier(*tier)
		if !ok {
			return fmt.Errorf("unknown tier %q", *tier)
		}
		if *ctc <= 0 {
			return errors.New("-ctc must be positive")
		}
		return writeJSON(out, salary.Derive(*ctc, t, *variable))

	case "help", "-h", "--help":
		usage(out)
		return nil

	default:
		usage(out)
		return fmt.Errorf("unknown command %q", cmd)
	}
}

// localOverview aggregates on the client from the store's rosters.
func (a *app) localOverview(ctx context.Context, filter allocation.Filter) (allocation.Overview, error) {
	users, err := a.client.ListUsers(ctx)
	if err != nil {
		return allocation.Overview{}, err
	}
	projects, err := a.client.ListProjects(ctx)
	if err != nil {
		return allocation.Overview{}, err
	}

	refs := make([]allocation.ProjectRef, len(projects))
	rosters := make(map[uint64][]membership.Membership, len(projects))
	for i, p := range projects {
		refs[i] = allocation.ProjectRef{ID: p.ID, Name: p.Name}
		roster, err := a.store.GetRoster(ctx, p.ID)
		if err != nil {
			return allocation.Overview{}, fmt.Errorf("roster of project %d: %w", p.ID, err)
		}
		rosters[p.ID] = roster
	}

	people := make([]allocation.Person, len(users))
	for i, u := range users {
		people[i] = personFromDTO(u)
	}
	return allocation.Build(people, refs, rosters, filter), nil
}

func personFromDTO(u dto.UserDTO) allocation.Person {
	return allocation.Person{
		ID:                     u.ID,
		Name:                   u.Name,
		Email:                  u.Email,
		Role:                   string(u.Role),
		DepartmentID:           u.DepartmentID,
		DomainID:               u.DomainID,
		ExperienceTier:         u.ExperienceTier,
		Skills:                 u.Skills,
		BaseHourlyRate:         u.BaseHourlyRate,
		AvailabilityPercentage: u.AvailabilityPercentage,
	}
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
