package main

import (
	"database/sql"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/hiendaovinh/toolkit/pkg/env"
	"github.com/joho/godotenv"
	"github.com/samber/do"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/urfave/cli/v2"
	tele "gopkg.in/telebot.v3"

	_ "github.com/mattn/go-sqlite3"

	"ambpromo/internal/datastore"
	"ambpromo/internal/interfaces"
	"ambpromo/internal/models"
	"ambpromo/internal/pkg/caching"
	"ambpromo/internal/services"
)

func init() {
	// for development
	//nolint:errcheck
	godotenv.Load("../../.env")

	// for production
	//nolint:errcheck
	godotenv.Load("./.env")
}

var adminIds []int64

const (
	contextContainer = "context-container"
)

func main() {
	app := &cli.App{
		Name: "bot-telegram",
		Commands: []*cli.Command{
			commandBot(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func commandBot() *cli.Command {
	return &cli.Command{
		Name:   "server",
		Action: action,
	}
}

func action(c *cli.Context) error {
	vs, err := env.EnvsRequired(
		"BOT_TOKEN",
	)
	if err != nil {
		return err
	}

	for _, v := range strings.Split(os.Getenv("ADMIN_IDS"), ",") {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			continue
		}
		adminIds = append(adminIds, id)
	}

	sqliteDb, err := getDb()
	if err != nil {
		return err
	}

	if err := datastore.Migrate(c.Context, sqliteDb); err != nil {
		return err
	}

	for _, dir := range []string{services.DIR_MEMES, services.DIR_SCREENSHOTS, services.DIR_EXPORTS} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}

	pref := tele.Settings{
		Token:  vs["BOT_TOKEN"],
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	}

	b, err := tele.NewBot(pref)
	if err != nil {
		return err
	}

	container := do.New()
	do.ProvideValue(container, sqliteDb)
	do.ProvideValue(container, b)
	do.ProvideValue(container, services.NewSessionStore())
	do.Provide(container, func(i *do.Injector) (caching.Cache, error) {
		return caching.NewCacheLocal(10000, services.CACHE_TTL_1_MIN), nil
	})
	do.Provide(container, services.NewBot)
	do.Provide(container, func(i *do.Injector) (interfaces.Notifier, error) {
		return do.Invoke[*services.Bot](i)
	})
	do.Provide(container, services.NewServiceSubscription)
	do.Provide(container, func(i *do.Injector) (interfaces.SubscriptionChecker, error) {
		return do.Invoke[*services.ServiceSubscription](i)
	})
	do.Provide(container, services.NewServiceScheduler)
	do.Provide(container, services.NewServiceUser)
	do.Provide(container, services.NewServiceLoyalty)
	do.Provide(container, services.NewServicePromo)
	do.Provide(container, services.NewServiceTask)
	do.Provide(container, services.NewServiceBroadcast)

	if err := startScheduler(container); err != nil {
		return err
	}

	b.Use(func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			if c.Callback() != nil {
				defer c.Respond()
			}

			c.Set(contextContainer, container)

			return next(c)
		}
	})

	// static commands
	b.Handle("/start", commandStart)
	b.Handle(&btnCheckSub, callbackCheckSubscription)
	b.Handle("/help", commandHelp)
	b.Handle("/myid", commandMyID)
	b.Handle("/link", commandLink)
	b.Handle("/balance", commandBalance)
	b.Handle("/promo", commandPromo)

	// task flows
	b.Handle("/task", commandTask)
	b.Handle("/cancel", commandCancelTask)
	b.Handle(&btnTaskMeme, callbackTaskMeme)
	b.Handle(&btnTaskText, callbackTaskText)
	b.Handle(&btnTaskRepost, callbackTaskRepost)
	b.Handle(tele.OnPhoto, handlePhoto)
	b.Handle(tele.OnText, handleText)

	// redemption flows
	b.Handle("/rewards", commandRewards)
	b.Handle(&btnOffer, callbackOffer)
	b.Handle(&btnRedeemConfirm, callbackRedeemConfirm)
	b.Handle(&btnRedeemCancel, callbackRedeemCancel)

	// admin console
	b.Handle("/admin", commandAdmin)
	b.Handle("/stats", commandStats)
	b.Handle("/export", commandExport)
	b.Handle("/broadcast", commandBroadcast)
	b.Handle("/message", commandMessage)
	b.Handle("/check_tasks", commandCheckTasks)
	b.Handle("/check_loyalty", commandCheckLoyalty)
	b.Handle("/debug_sub", commandDebugSub)
	b.Handle("/clear_cache", commandClearCache)
	b.Handle("/db_status", commandDBStatus)
	b.Handle("/refresh", commandRefresh)
	b.Handle(&btnApproveTask, callbackApproveTask)
	b.Handle(&btnDeclineTask, callbackDeclineTask)
	handleContentCommands(b)

	b.Start()

	return nil
}

func startScheduler(container *do.Injector) error {
	scheduler, err := do.Invoke[*services.ServiceScheduler](container)
	if err != nil {
		return err
	}

	serviceLoyalty, err := do.Invoke[*services.ServiceLoyalty](container)
	if err != nil {
		return err
	}

	checker, err := do.Invoke[interfaces.SubscriptionChecker](container)
	if err != nil {
		return err
	}

	notifier, err := do.Invoke[interfaces.Notifier](container)
	if err != nil {
		return err
	}

	scheduler.RegisterHandler(models.JobKindLoyaltyCheck, serviceLoyalty.HandleLoyaltyJob)
	scheduler.RegisterHandler(models.JobKindReminder, newReminderHandler(checker, notifier))

	return scheduler.Start()
}

func getDb() (*bun.DB, error) {
	dsn := os.Getenv("DB_PATH")
	if dsn == "" {
		dsn = "bot.db"
	}

	sqldb, err := sql.Open("sqlite3", dsn+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, err
	}

	// sqlite allows one writer at a time
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())
	return db, nil
}

func AuthRequireUsers(ctx tele.Context, userIds []int64) bool {
	authorized := false
	for _, userId := range userIds {
		if ctx.Sender().ID == userId {
			authorized = true
			break
		}
	}

	if !authorized {
		ctx.Send("You are not authorized to use this bot here.")
	}

	return authorized
}
