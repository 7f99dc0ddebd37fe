package telegram

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/M2YTech/libaas-backend/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

var usernames string = os.Getenv("TG_ADMINS") //separated by comma from env

func EscapeMessage(message string) string {
	r := strings.NewReplacer(
		"_", "\\_",
		"*", "\\*",
		"[", "\\[",
		"`", "\\`",
	)
	return r.Replace(message)
}

func isAdmin(username string) bool {
	for _, admin := range strings.Split(usernames, ",") {
		if strings.TrimSpace(admin) == username {
			return true
		}
	}
	return false
}

func statsMessage(db *gorm.DB) string {
	var userCount, itemCount, insightCount int64
	db.Model(&models.UserAccount{}).Count(&userCount)
	db.Model(&models.WardrobeItem{}).Count(&itemCount)
	db.Model(&models.UserAccount{}).Where("style_insights is not null").Count(&insightCount)

	description := strings.Builder{}
	description.WriteString("```\n")
	description.WriteString(fmt.Sprintf("👤 Users:         %v\n", userCount))
	description.WriteString(fmt.Sprintf("👕 Wardrobe:      %v\n", itemCount))
	description.WriteString(fmt.Sprintf("✨ With insights: %v\n", insightCount))
	description.WriteString("```\n/stats")
	return description.String()
}

func usersMessage(db *gorm.DB) string {
	var users []models.UserAccount
	db.Order("created_at desc").Limit(10).Find(&users)

	if len(users) == 0 {
		return "No signups yet ✅"
	}
	description := strings.Builder{}
	description.WriteString("```\n")
	for _, user := range users {
		description.WriteString(fmt.Sprintf("%s     🕐 %s      \n", user.Name, user.CreatedAt.Format("2006-01-02")))
		description.WriteString(fmt.Sprintf(" ✉️ %s   \n", user.Email))
	}
	description.WriteString("```\n/users")
	return description.String()
}

func RunAdminBot(e *echo.Echo, db *gorm.DB) {

	if usernames == "" {
		usernames = "formality8765"
	}
	bot, err := tgbotapi.NewBotAPI(os.Getenv("TG_TOKEN"))
	if err != nil {
		println("Error tg bot init")
		log.Panic(err)
	}
	bot.Debug = true

	log.Printf("Authorized on account %s", bot.Self.UserName)

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := bot.GetUpdatesChan(u)

	for update := range updates {
		if update.Message == nil {
			continue
		}
		log.Printf("[%s] %s", update.Message.From.UserName, update.Message.Text)
		if !isAdmin(update.Message.From.UserName) {
			continue
		}

		if update.Message.Command() == "start" {
			msg := tgbotapi.NewMessage(update.Message.Chat.ID, "Libaas admin bot. Commands:\n`/stats` for user and wardrobe counts\n`/users` for recent signups")
			msg.ParseMode = "markdown"
			bot.Send(msg)
			continue
		} else if update.Message.Command() == "stats" {
			msg := tgbotapi.NewMessage(update.Message.Chat.ID, statsMessage(db))
			msg.ParseMode = "markdown"
			bot.Send(msg)
			continue
		} else if update.Message.Command() == "users" {
			msg := tgbotapi.NewMessage(update.Message.Chat.ID, usersMessage(db))
			msg.ParseMode = "markdown"
			bot.Send(msg)
			continue
		}

		msg := tgbotapi.NewMessage(update.Message.Chat.ID, fmt.Sprintf("Unknown command: '%s' \nTry `/stats` or `/users`.", EscapeMessage(update.Message.Text)))
		msg.ReplyToMessageID = update.Message.MessageID
		msg.ParseMode = "markdown"
		bot.Send(msg)
	}

}
