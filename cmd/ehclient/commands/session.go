package commands

import (
	"context"
	"log/slog"

	"ehclient/internal/app"
	"ehclient/internal/setting"
	"ehclient/lib/appdb"
	"ehclient/lib/configutil"
	"ehclient/lib/cookies"
	"ehclient/lib/device"
	"ehclient/lib/flow"
	"ehclient/lib/request"
	"ehclient/lib/restyutil"
	"ehclient/lib/util/serviceutil"

	"dario.cat/mergo"
)

type Config struct {
	Request  request.Config `json:"request" envPrefix:"REQUEST_"`
	Database appdb.Config   `json:"database"`
	// Language selects the tag translation database, e.g. "cn".
	Language string `json:"language" env:"LANGUAGE"`

	MemberID string `json:"member_id" env:"MEMBER_ID"`
	PassHash string `json:"pass_hash" env:"PASS_HASH"`

	MaxAssociatedDepth int    `json:"max_associated_depth" env:"MAX_ASSOCIATED_DEPTH"`
	ImageCacheDir      string `json:"image_cache_dir" env:"IMAGE_CACHE_DIR"`
	// DumpDir receives every http exchange while --verbose is set.
	DumpDir string `json:"dump_dir" env:"DUMP_DIR"`
}

func readConfig() Config {
	cfg, err := configutil.Load[Config](*configPath, "EHCLIENT_")
	if err != nil {
		serviceutil.Fatal("failed to read config", err)
	}
	err = mergo.Merge(&cfg.Request, request.DefaultConfig())
	if err != nil {
		serviceutil.Fatal("failed to apply default request config", err)
	}
	if cfg.Database.File == "" && cfg.Database.URL == "" {
		cfg.Database.File = "ehclient.db"
	}
	return cfg
}

type session struct {
	store   *flow.Store[app.State, app.Action, app.Environment]
	db      appdb.DB
	client  *request.Client
	cookies *cookies.Store
}

// openSession wires the request pipeline and persistence into a store and
// loads the persisted settings, the same way the app does on launch.
func openSession(ctx context.Context) *session {
	cfg := readConfig()

	sqlite, err := cfg.Database.OpenDB()
	if err != nil {
		serviceutil.Fatal("failed to open db", err)
	}
	db, err := appdb.New(ctx, sqlite)
	if err != nil {
		serviceutil.Fatal("failed to migrate db", err)
	}

	jar, err := cookies.NewStore(cfg.Request.EHentaiURL, cfg.Request.ExHentaiURL)
	if err != nil {
		serviceutil.Fatal("failed to create cookie store", err)
	}
	if cfg.MemberID != "" && cfg.PassHash != "" {
		jar.SetCredentials(cfg.MemberID, cfg.PassHash)
	}

	opts := request.ClientOptions{
		Config: cfg.Request,
		Jar:    jar,
	}
	if cfg.DumpDir != "" {
		output, err := restyutil.NewFilesystemOutput(cfg.DumpDir)
		if err != nil {
			serviceutil.Fatal("failed to create dump directory", err)
		}
		opts.DumpOutput = output
	}
	client, err := request.NewClient(opts)
	if err != nil {
		serviceutil.Fatal("failed to create client", err)
	}

	env := app.Environment{
		Client:       client,
		Database:     db,
		UserDefaults: db.UserDefaults(),
		Cookies:      jar,
		Device:       &device.Headless{ImageCacheDir: cfg.ImageCacheDir},
		Language:     cfg.Language,
	}
	store := flow.NewStore(app.New(app.Config{MaxAssociatedDepth: cfg.MaxAssociatedDepth}), app.Reducer, env)
	context.AfterFunc(ctx, store.Close)

	s := &session{
		store:   store,
		db:      db,
		client:  client,
		cookies: jar,
	}
	state := s.dispatch(
		app.Setting{Action: setting.Account{Action: setting.LoadCookies{}}},
		app.Setting{Action: setting.LoadUserSettings{}},
	)
	if state.Setting.LoadErr != nil {
		serviceutil.Fatal("failed to load settings", state.Setting.LoadErr)
	}
	slog.Debug(
		"session ready",
		"host", state.Setting.Setting.GalleryHost,
		"logged_in", jar.DidLogin(),
	)
	return s
}

// dispatch runs each action to completion, effects included, and returns the
// state that follows.
func (s *session) dispatch(actions ...app.Action) app.State {
	for _, action := range actions {
		s.store.Send(action)
		s.store.Idle()
	}
	return s.store.Snapshot()
}

func (s *session) Close() {
	s.store.Close()
	err := s.db.Close()
	if err != nil {
		slog.Warn("failed to close db", "err", err)
	}
}
