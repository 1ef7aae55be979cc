package rest

import (
	"github.com/dustin/go-humanize"
	"github.com/gofiber/fiber/v2"
	domainSchedule "github.com/pmcostaxyz/telegram-chat/domains/schedule"
	"github.com/pmcostaxyz/telegram-chat/pkg/utils"
)

type Schedule struct {
	Service domainSchedule.IScheduleUsecase
}

func InitRestSchedule(app fiber.Router, service domainSchedule.IScheduleUsecase) Schedule {
	rest := Schedule{Service: service}
	app.Post("/messages", rest.ScheduleMessage)
	app.Get("/messages", rest.ListMessages)
	app.Get("/messages/summary", rest.Summary)
	app.Delete("/messages/:id", rest.CancelMessage)
	app.Post("/conversations", rest.ScheduleConversation)
	app.Post("/conversations/generate", rest.GenerateConversation)
	return rest
}

func (controller *Schedule) ScheduleMessage(c *fiber.Ctx) error {
	var request domainSchedule.CreateMessageRequest
	err := c.BodyParser(&request)
	utils.PanicIfNeeded(err)

	ids, err := controller.Service.ScheduleMessage(c.UserContext(), request)
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Success schedule message",
		Results: map[string]any{"ids": ids},
	})
}

func (controller *Schedule) ListMessages(c *fiber.Ctx) error {
	filter := domainSchedule.ListFilter{
		AccountID:        c.Query("account_id"),
		Status:           domainSchedule.Status(c.Query("status")),
		IncludeTemplates: c.QueryBool("include_templates"),
		Limit:            c.QueryInt("limit"),
	}

	messages, err := controller.Service.ListMessages(c.UserContext(), filter)
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Success fetch scheduled messages",
		Results: messages,
	})
}

type upcomingEntry struct {
	domainSchedule.ScheduledMessage
	NextRunIn string `json:"next_run_in"`
}

func (controller *Schedule) Summary(c *fiber.Ctx) error {
	summary, err := controller.Service.Summary(c.UserContext())
	utils.PanicIfNeeded(err)

	upcoming := make([]upcomingEntry, 0, len(summary.Upcoming))
	for _, msg := range summary.Upcoming {
		upcoming = append(upcoming, upcomingEntry{
			ScheduledMessage: msg,
			NextRunIn:        humanize.Time(msg.ScheduledTime),
		})
	}

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Success fetch schedule summary",
		Results: map[string]any{
			"counts":   summary.Counts,
			"upcoming": upcoming,
		},
	})
}

func (controller *Schedule) CancelMessage(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return c.Status(400).JSON(utils.ResponseData{
			Status:  400,
			Code:    "BAD_REQUEST",
			Message: "id is required",
		})
	}

	err := controller.Service.Cancel(c.UserContext(), id)
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Success cancel scheduled message",
	})
}

func (controller *Schedule) ScheduleConversation(c *fiber.Ctx) error {
	var request domainSchedule.ConversationRequest
	err := c.BodyParser(&request)
	utils.PanicIfNeeded(err)

	ids, err := controller.Service.ScheduleConversation(c.UserContext(), request)
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Success schedule conversation",
		Results: map[string]any{"ids": ids},
	})
}

func (controller *Schedule) GenerateConversation(c *fiber.Ctx) error {
	var request domainSchedule.GenerateConversationRequest
	err := c.BodyParser(&request)
	utils.PanicIfNeeded(err)

	steps, err := controller.Service.GenerateConversation(c.UserContext(), request)
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Success generate conversation",
		Results: steps,
	})
}
