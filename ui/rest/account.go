package rest

import (
	"github.com/gofiber/fiber/v2"
	domainAccount "github.com/pmcostaxyz/telegram-chat/domains/account"
	"github.com/pmcostaxyz/telegram-chat/pkg/utils"
)

type Account struct {
	Service domainAccount.IAccountUsecase
}

func InitRestAccount(app fiber.Router, service domainAccount.IAccountUsecase) Account {
	rest := Account{Service: service}
	app.Post("/accounts", rest.Create)
	app.Get("/accounts", rest.List)
	app.Get("/accounts/:id", rest.Get)
	app.Delete("/accounts/:id", rest.Delete)
	app.Post("/accounts/:id/auth/request-code", rest.RequestCode)
	app.Post("/accounts/:id/auth/verify-code", rest.VerifyCode)
	return rest
}

func (controller *Account) Create(c *fiber.Ctx) error {
	var request domainAccount.CreateAccountRequest
	err := c.BodyParser(&request)
	utils.PanicIfNeeded(err)

	account, err := controller.Service.Create(c.UserContext(), request)
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Success create account",
		Results: account,
	})
}

func (controller *Account) List(c *fiber.Ctx) error {
	accounts, err := controller.Service.List(c.UserContext())
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Success fetch accounts",
		Results: accounts,
	})
}

func (controller *Account) Get(c *fiber.Ctx) error {
	account, err := controller.Service.Get(c.UserContext(), c.Params("id"))
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Success fetch account",
		Results: account,
	})
}

func (controller *Account) Delete(c *fiber.Ctx) error {
	err := controller.Service.Delete(c.UserContext(), c.Params("id"))
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Success delete account",
	})
}

func (controller *Account) RequestCode(c *fiber.Ctx) error {
	codeHash, err := controller.Service.RequestCode(c.UserContext(), c.Params("id"))
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Verification code sent",
		Results: map[string]string{"code_hash": codeHash},
	})
}

type verifyCodeRequest struct {
	Code     string `json:"code"`
	CodeHash string `json:"code_hash"`
}

func (controller *Account) VerifyCode(c *fiber.Ctx) error {
	var request verifyCodeRequest
	err := c.BodyParser(&request)
	utils.PanicIfNeeded(err)

	result, err := controller.Service.VerifyCode(c.UserContext(), c.Params("id"), request.Code, request.CodeHash)
	utils.PanicIfNeeded(err)

	message := "Account authenticated"
	if result.TwoFactorRequired {
		message = "Two-factor authentication required, complete sign-in in the Telegram app"
	}

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: message,
		Results: result,
	})
}
