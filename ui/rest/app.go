package rest

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	globalConfig "github.com/pmcostaxyz/telegram-chat/config"
	"github.com/pmcostaxyz/telegram-chat/infrastructure/valkey"
	"github.com/pmcostaxyz/telegram-chat/pkg/sendworker"
	"github.com/pmcostaxyz/telegram-chat/pkg/utils"
)

type App struct {
	db   *gorm.DB
	pool *sendworker.Pool
	vk   *valkey.Client
}

func InitRestApp(app fiber.Router, db *gorm.DB, pool *sendworker.Pool, vk *valkey.Client) App {
	rest := App{db: db, pool: pool, vk: vk}
	app.Get("/app/version", rest.Version)
	app.Get("/app/health", rest.Health)
	return rest
}

func (controller *App) Version(c *fiber.Ctx) error {
	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Success get version",
		Results: map[string]string{"version": globalConfig.AppVersion},
	})
}

func (controller *App) Health(c *fiber.Ctx) error {
	health := map[string]any{
		"database": "ok",
		"valkey":   "disabled",
	}

	if controller.db != nil {
		if sqlDB, err := controller.db.DB(); err != nil || sqlDB.PingContext(c.UserContext()) != nil {
			health["database"] = "unreachable"
		}
	}
	if controller.vk != nil {
		health["valkey"] = "ok"
		if err := controller.vk.Ping(c.UserContext()); err != nil {
			health["valkey"] = "unreachable"
		}
	}
	if controller.pool != nil {
		health["send_pool"] = controller.pool.Stats()
	}

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Success get health",
		Results: health,
	})
}
