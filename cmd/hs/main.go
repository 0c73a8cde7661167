package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"hindsight/internal/app"
	"hindsight/internal/config"
	"hindsight/internal/db"
	"hindsight/internal/domain"
	"hindsight/internal/engine"
	"hindsight/internal/engine/auth"
	"hindsight/internal/insight"
	"hindsight/internal/migrate"
	"hindsight/internal/repo"
	"hindsight/internal/server"
)

var rootCmd = &cobra.Command{
	Use:   "hs",
	Short: "Hindsight CLI",
	Long: `Hindsight is a decision journal: record choices before the outcome is known,
then close the loop with an honest review once reality has answered.
- Decision: a titled choice with options, the one you picked, your reasoning,
  a 1-10 confidence score, and the assumptions it rests on.
- Review: the one-time verdict (success, partial_success, failure), what
  actually happened, and which assumptions held.
- Target date: when to check back; 'hs decision due' lists what is waiting.
- Stats and insights: failure rates, confidence calibration, and LLM-spotted
  patterns across your reviewed decisions.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		workspace := viper.GetString("workspace")
		_ = godotenv.Load(filepath.Join(workspace, ".env"))
		if _, err := db.EnsureWorkspace(workspace); err != nil {
			return err
		}
		return nil
	},
}

func main() {
	cobra.OnInitialize(initConfig)
	addPersistentFlags()
	registerCommands()
	if err := rootCmd.Execute(); err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}
}

func initConfig() {
	viper.SetEnvPrefix("HINDSIGHT")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func addPersistentFlags() {
	rootCmd.PersistentFlags().StringP("workspace", "w", ".", "workspace directory")
	rootCmd.PersistentFlags().Bool("json", false, "output JSON")
	rootCmd.PersistentFlags().String("user", "", "account email (overrides HINDSIGHT_USER)")
	_ = viper.BindPFlag("workspace", rootCmd.PersistentFlags().Lookup("workspace"))
	_ = viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	_ = viper.BindPFlag("user", rootCmd.PersistentFlags().Lookup("user"))
}

func registerCommands() {
	rootCmd.AddCommand(initCmd())
	rootCmd.AddCommand(userCmd())
	rootCmd.AddCommand(decisionCmd())
	rootCmd.AddCommand(statsCmd())
	rootCmd.AddCommand(insightCmd())
	rootCmd.AddCommand(keyCmd())
	rootCmd.AddCommand(logCmd())
	rootCmd.AddCommand(serveCmd())
}

func initCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize a journal workspace",
		RunE: func(cmd *cobra.Command, args []string) error {
			workspace := viper.GetString("workspace")
			cfgPath := config.Path(workspace)
			if _, err := os.Stat(cfgPath); os.IsNotExist(err) {
				if err := os.WriteFile(cfgPath, []byte(config.GenerateDefault()), 0o644); err != nil {
					return err
				}
				fmt.Printf("Wrote %s\n", cfgPath)
			} else {
				fmt.Printf("Config %s already exists, leaving it alone\n", cfgPath)
			}
			conn, err := db.Open(db.Config{Workspace: workspace})
			if err != nil {
				return err
			}
			defer conn.Close()
			if err := migrate.Migrate(conn); err != nil {
				return err
			}
			fmt.Printf("Journal ready at %s\n", db.Path(workspace))
			return nil
		},
	}
	return cmd
}

func userCmd() *cobra.Command {
	user := &cobra.Command{
		Use:   "user",
		Short: "Manage journal accounts",
	}
	user.AddCommand(userRegisterCmd())
	user.AddCommand(userListCmd())
	user.AddCommand(userUseCmd())
	return user
}

func userRegisterCmd() *cobra.Command {
	var email, name, password string
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Register an account",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				identity := auth.NewService(r.DB)
				u, err := identity.Register(ctx, email, name, password)
				if err != nil {
					return err
				}
				return printJSONOrTable(u)
			})
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().StringVar(&password, "password", "", "password (min 8 chars)")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func userListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List accounts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				users, err := r.ListUsers(ctx)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(users)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Email", "Name", "Created"})
				for _, u := range users {
					tw.AppendRow(table.Row{u.ID, u.Email, u.Name, u.CreatedAt})
				}
				tw.Render()
				return nil
			})
		},
	}
	return cmd
}

func userUseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "use <email>",
		Short: "Set the default account for this workspace",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			email := strings.TrimSpace(args[0])
			if email == "" {
				return fmt.Errorf("email is required")
			}
			workspace := viper.GetString("workspace")
			if err := setEnvValue(filepath.Join(workspace, ".env"), "HINDSIGHT_USER", email); err != nil {
				return err
			}
			fmt.Printf("Set HINDSIGHT_USER=%s in %s/.env\n", email, workspace)
			return nil
		},
	}
	return cmd
}

func decisionCmd() *cobra.Command {
	dec := &cobra.Command{
		Use:   "decision",
		Short: "Manage decisions",
		Long:  "Decisions capture what you chose and why while the outcome is still unknown. Review them later to find out how good your reasoning actually was.",
	}
	dec.AddCommand(decisionAddCmd())
	dec.AddCommand(decisionListCmd())
	dec.AddCommand(decisionShowCmd())
	dec.AddCommand(decisionReviewCmd())
	dec.AddCommand(decisionDeleteCmd())
	dec.AddCommand(decisionDueCmd())
	return dec
}

func decisionAddCmd() *cobra.Command {
	var opts engine.DecisionCreateOptions
	var options, assumptions []string
	var optionsJSON string
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record a decision",
		RunE: func(cmd *cobra.Command, args []string) error {
			if optionsJSON != "" {
				if err := json.Unmarshal([]byte(optionsJSON), &opts.Options); err != nil {
					return fmt.Errorf("invalid --options-json: %w", err)
				}
			} else {
				for _, name := range options {
					opts.Options = append(opts.Options, domain.Option{Name: name})
				}
			}
			for _, stmt := range assumptions {
				opts.Assumptions = append(opts.Assumptions, domain.Assumption{Statement: stmt})
			}
			return withUser(cmd.Context(), func(ctx context.Context, e engine.Engine, u domain.User) error {
				opts.OwnerID = u.ID
				d, err := e.CreateDecision(ctx, opts)
				if err != nil {
					return err
				}
				return printJSONOrTable(d)
			})
		},
	}
	cmd.Flags().StringVar(&opts.Title, "title", "", "what is being decided")
	cmd.Flags().StringVar(&opts.Context, "context", "other", "life area (personal, career, business, study, other)")
	cmd.Flags().StringArrayVar(&options, "option", []string{}, "option considered (repeatable)")
	cmd.Flags().StringVar(&optionsJSON, "options-json", "", "options as JSON, with pros and cons")
	cmd.Flags().StringVar(&opts.ChosenOptionID, "chosen-id", "", "chosen option id (defaults to the first option)")
	cmd.Flags().StringVar(&opts.Reasoning, "reasoning", "", "why this option")
	cmd.Flags().IntVar(&opts.Confidence, "confidence", 5, "confidence 1-10")
	cmd.Flags().StringArrayVar(&assumptions, "assume", []string{}, "assumption statement (repeatable)")
	cmd.Flags().StringVar(&opts.TargetDate, "target-date", "", "review date YYYY-MM-DD")
	_ = cmd.MarkFlagRequired("title")
	_ = cmd.MarkFlagRequired("target-date")
	return cmd
}

func decisionListCmd() *cobra.Command {
	var f repo.DecisionFilters
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List decisions",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withUser(cmd.Context(), func(ctx context.Context, e engine.Engine, u domain.User) error {
				decisions, err := e.ListDecisions(ctx, u.ID, f)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(decisions)
				}
				now := time.Now()
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Title", "Context", "Conf", "Outcome", "Target", "Due"})
				for _, d := range decisions {
					due := ""
					if engine.Due(d, now) {
						due = "yes"
					}
					tw.AppendRow(table.Row{d.ID, d.Title, d.Context, d.Confidence, d.Outcome(), d.TargetDate, due})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&f.Context, "context", "", "context filter")
	cmd.Flags().StringVar(&f.Outcome, "outcome", "", "outcome filter (pending, success, partial_success, failure)")
	cmd.Flags().IntVar(&f.Limit, "limit", 0, "max results")
	return cmd
}

func decisionShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a decision",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			return withUser(cmd.Context(), func(ctx context.Context, e engine.Engine, u domain.User) error {
				d, err := e.GetDecision(ctx, id, u.ID)
				if err != nil {
					return err
				}
				return printJSONOrTable(d)
			})
		},
	}
	return cmd
}

func decisionReviewCmd() *cobra.Command {
	var opts engine.ReviewOptions
	var assumptionResults []string
	cmd := &cobra.Command{
		Use:   "review <id>",
		Short: "Close a decision's review",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.ID = args[0]
			results, err := parseAssumptionResults(assumptionResults)
			if err != nil {
				return err
			}
			opts.Assumptions = results
			return withUser(cmd.Context(), func(ctx context.Context, e engine.Engine, u domain.User) error {
				opts.OwnerID = u.ID
				d, err := e.CloseReview(ctx, opts)
				if err != nil {
					return err
				}
				return printJSONOrTable(d)
			})
		},
	}
	cmd.Flags().StringVar(&opts.Outcome, "outcome", "", "outcome (success, partial_success, failure)")
	cmd.Flags().StringVar(&opts.WhatHappened, "what-happened", "", "what actually happened")
	cmd.Flags().StringVar(&opts.Lessons, "lessons", "", "lessons learned")
	cmd.Flags().StringArrayVar(&assumptionResults, "assumption", []string{}, "assumption verdict as id=true|false (repeatable)")
	_ = cmd.MarkFlagRequired("outcome")
	_ = cmd.MarkFlagRequired("what-happened")
	_ = cmd.MarkFlagRequired("lessons")
	return cmd
}

func decisionDeleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a decision",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			return withUser(cmd.Context(), func(ctx context.Context, e engine.Engine, u domain.User) error {
				return e.DeleteDecision(ctx, id, u.ID)
			})
		},
	}
	return cmd
}

func decisionDueCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "due",
		Short: "Decisions waiting for their review",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withUser(cmd.Context(), func(ctx context.Context, e engine.Engine, u domain.User) error {
				due, err := e.DueForReview(ctx, u.ID)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(due)
				}
				if len(due) == 0 {
					fmt.Println("Nothing due for review")
					return nil
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Title", "Target", "Confidence"})
				for _, d := range due {
					tw.AppendRow(table.Row{d.ID, d.Title, d.TargetDate, d.Confidence})
				}
				tw.Render()
				return nil
			})
		},
	}
	return cmd
}

func statsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Decision statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withUser(cmd.Context(), func(ctx context.Context, e engine.Engine, u domain.User) error {
				s, err := e.Stats(ctx, u.ID)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(s)
				}
				fmt.Printf("Decisions: %d (%d reviewed)\n", s.Total, s.ReviewedCount)
				fmt.Printf("Outcomes: %d success, %d partial, %d failure\n", s.SuccessCount, s.PartialCount, s.FailureCount)
				fmt.Printf("Failure rate: %.0f%%\n", s.FailureRate*100)
				fmt.Printf("Average confidence: %.1f\n", s.AvgConfidence)
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"Context", "Count"})
				for ctxName, count := range s.ByContext {
					tw.AppendRow(table.Row{ctxName, count})
				}
				tw.Render()
				return nil
			})
		},
	}
	return cmd
}

func insightCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "insight",
		Short: "Analyze decision patterns with an LLM",
		RunE: func(cmd *cobra.Command, args []string) error {
			workspace := viper.GetString("workspace")
			cfg, err := config.LoadOptional(workspace)
			if err != nil {
				return err
			}
			analyzer, err := buildAnalyzer(cfg)
			if err != nil {
				return err
			}
			return withUser(cmd.Context(), func(ctx context.Context, e engine.Engine, u domain.User) error {
				decisions, err := e.ListDecisions(ctx, u.ID, repo.DecisionFilters{})
				if err != nil {
					return err
				}
				in := analyzer.Analyze(ctx, decisions)
				if viper.GetBool("json") {
					return printJSON(in)
				}
				printSection("Patterns", in.Patterns)
				printSection("Cognitive biases", in.CognitiveBiases)
				printSection("Reflections", in.SuggestedReflections)
				return nil
			})
		},
	}
	return cmd
}

func printSection(title string, items []string) {
	fmt.Printf("%s:\n", title)
	if len(items) == 0 {
		fmt.Println("  (none)")
		return
	}
	for _, item := range items {
		fmt.Printf("  - %s\n", item)
	}
}

func keyCmd() *cobra.Command {
	key := &cobra.Command{
		Use:   "key",
		Short: "Manage API keys",
	}
	key.AddCommand(keyCreateCmd())
	key.AddCommand(keyListCmd())
	key.AddCommand(keyDeleteCmd())
	return key
}

func keyCreateCmd() *cobra.Command {
	var name string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an API key",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withUser(cmd.Context(), func(ctx context.Context, e engine.Engine, u domain.User) error {
				plaintext, err := repo.NewAPIKeySecret()
				if err != nil {
					return err
				}
				key := domain.APIKey{
					ID:        uuid.NewString(),
					UserID:    u.ID,
					Name:      name,
					KeyHash:   repo.HashAPIKey(plaintext),
					CreatedAt: time.Now().UTC().Format(time.RFC3339),
				}
				if err := e.Repo.InsertAPIKey(ctx, nil, key); err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(map[string]string{"id": key.ID, "key": plaintext})
				}
				fmt.Printf("Key %s created. Store the secret now; it is not shown again:\n%s\n", key.ID, plaintext)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "key label")
	return cmd
}

func keyListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List API keys",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withUser(cmd.Context(), func(ctx context.Context, e engine.Engine, u domain.User) error {
				keys, err := e.Repo.ListAPIKeys(ctx, u.ID)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(keys)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Name", "Created"})
				for _, k := range keys {
					tw.AppendRow(table.Row{k.ID, k.Name, k.CreatedAt})
				}
				tw.Render()
				return nil
			})
		},
	}
	return cmd
}

func keyDeleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an API key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			return withUser(cmd.Context(), func(ctx context.Context, e engine.Engine, u domain.User) error {
				return e.Repo.DeleteAPIKey(ctx, id, u.ID)
			})
		},
	}
	return cmd
}

func logCmd() *cobra.Command {
	log := &cobra.Command{
		Use:   "log",
		Short: "Event log",
		Long:  "The diary of everything that happened to your journal: registrations, decisions, reviews, deletions.",
	}
	log.AddCommand(logTailCmd())
	return log
}

func logTailCmd() *cobra.Command {
	var n int
	var evtType string
	cmd := &cobra.Command{
		Use:   "tail",
		Short: "Tail events",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withUser(cmd.Context(), func(ctx context.Context, e engine.Engine, u domain.User) error {
				events, err := e.Repo.LatestEvents(ctx, n, 0, u.ID, evtType)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(events)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"TS", "Type", "Entity", "Payload"})
				for _, evt := range events {
					tw.AppendRow(table.Row{evt.TS, evt.Type, evt.EntityID, evt.Payload})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&n, "n", 20, "number of events")
	cmd.Flags().StringVar(&evtType, "type", "", "event type filter")
	return cmd
}

func serveCmd() *cobra.Command {
	var addr, basePath string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			workspace := viper.GetString("workspace")
			cfg, err := config.LoadOptional(workspace)
			if err != nil {
				return err
			}
			if addr == "" {
				addr = cfg.Server.Addr
			}
			if basePath == "" {
				basePath = cfg.Server.BasePath
			}
			conn, err := db.Open(db.Config{Workspace: workspace})
			if err != nil {
				return err
			}
			defer conn.Close()
			if err := migrate.Migrate(conn); err != nil {
				return err
			}
			e := engine.New(conn, cfg)
			authCfg := server.AuthConfig{
				JWTSecret: os.Getenv("HINDSIGHT_JWT_SECRET"),
				TokenTTL:  time.Duration(cfg.Auth.TokenTTLHours) * time.Hour,
			}
			if authCfg.JWTSecret == "" {
				return fmt.Errorf("HINDSIGHT_JWT_SECRET is required for bearer auth")
			}
			analyzer, err := buildAnalyzer(cfg)
			if err != nil {
				return err
			}
			handler, err := server.New(server.Config{
				Engine:   e,
				Identity: auth.NewService(conn),
				Insight:  analyzer,
				BasePath: basePath,
				Auth:     authCfg,
			})
			if err != nil {
				return err
			}
			srv := &http.Server{Addr: addr, Handler: handler}
			go func() {
				<-cmd.Context().Done()
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				srv.Shutdown(ctx)
			}()
			fmt.Printf("Serving Hindsight API on http://%s%s (OpenAPI at %s/openapi.json, Swagger UI at /docs)\n", addr, basePath, basePath)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (defaults from hindsight.yml)")
	cmd.Flags().StringVar(&basePath, "base-path", "", "API base path (defaults from hindsight.yml)")
	return cmd
}

// --- helpers ---

func buildAnalyzer(cfg *config.Config) (insight.Analyzer, error) {
	analyzer := insight.Analyzer{
		Threshold: cfg.Insight.Threshold,
		Timeout:   time.Duration(cfg.Insight.TimeoutSeconds) * time.Second,
	}
	if cfg.Insight.Provider != "" {
		provider, err := insight.NewProvider(cfg.Insight.Provider)
		if err != nil {
			return insight.Analyzer{}, err
		}
		analyzer.Provider = provider
	}
	return analyzer, nil
}

func withEngine(ctx context.Context, fn func(context.Context, engine.Engine) error) error {
	workspace := viper.GetString("workspace")
	conn, err := db.Open(db.Config{Workspace: workspace})
	if err != nil {
		return err
	}
	defer conn.Close()
	if err := migrate.Migrate(conn); err != nil {
		return err
	}
	cfg, err := config.LoadOptional(workspace)
	if err != nil {
		return err
	}
	return fn(ctx, engine.New(conn, cfg))
}

func withUser(ctx context.Context, fn func(context.Context, engine.Engine, domain.User) error) error {
	return withEngine(ctx, func(ctx context.Context, e engine.Engine) error {
		email := viper.GetString("user")
		u, err := app.ResolveUser(ctx, email, e.Repo)
		if err != nil {
			return err
		}
		return fn(ctx, e, u)
	})
}

func withRepo(ctx context.Context, fn func(context.Context, repo.Repo) error) error {
	workspace := viper.GetString("workspace")
	conn, err := db.Open(db.Config{Workspace: workspace})
	if err != nil {
		return err
	}
	defer conn.Close()
	if err := migrate.Migrate(conn); err != nil {
		return err
	}
	return fn(ctx, repo.Repo{DB: conn})
}

func parseAssumptionResults(entries []string) (map[string]bool, error) {
	if len(entries) == 0 {
		return nil, nil
	}
	results := make(map[string]bool, len(entries))
	for _, entry := range entries {
		parts := strings.SplitN(entry, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid --assumption %q: expected id=true|false", entry)
		}
		held, err := strconv.ParseBool(parts[1])
		if err != nil {
			return nil, fmt.Errorf("invalid --assumption %q: %w", entry, err)
		}
		results[parts[0]] = held
	}
	return results, nil
}

func printJSONOrTable(v any) error {
	if viper.GetBool("json") {
		return printJSON(v)
	}
	b, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(b))
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func setEnvValue(path, key, value string) error {
	var lines []string
	seen := false
	f, err := os.Open(path)
	if err == nil {
		scanner := bufio.NewScanner(f)
		for scanner.Scan() {
			line := scanner.Text()
			if strings.HasPrefix(line, key+"=") {
				lines = append(lines, fmt.Sprintf("%s=%s", key, value))
				seen = true
			} else {
				lines = append(lines, line)
			}
		}
		if err := scanner.Err(); err != nil {
			f.Close()
			return err
		}
		f.Close()
	} else if !os.IsNotExist(err) {
		return err
	}
	if !seen {
		lines = append(lines, fmt.Sprintf("%s=%s", key, value))
	}
	content := strings.Join(lines, "\n")
	if content != "" && !strings.HasSuffix(content, "\n") {
		content += "\n"
	}
	return os.WriteFile(path, []byte(content), 0o644)
}
