package telegram

import (
	"context"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"farm-advisor/api/internal/advisory/types"
)

const helpText = `🌾 Farm advisor
• Send a photo of a sick plant or a PDF lab report for a diagnosis.
• Share your location for a weather advisory.
/fertilizer <crop> <stage> – fertilizer plan
/weather – weather advisory for your saved location
/forecast – 5-day forecast for your saved location
/prices [crop] – market prices near your saved location
/lang <code> – answer language (en, hi, mr, ta …)
/engine gemini|gpt – model to use`

func (r *Router) HandleCommand(ctx context.Context, msg *tgbotapi.Message) {
	cid := msg.Chat.ID
	args := strings.Fields(msg.CommandArguments())

	switch msg.Command() {
	case "start", "help":
		r.send(cid, helpText)

	case "lang":
		if len(args) == 0 {
			cur := r.Sessions.Get(cid).Language
			if cur == "" {
				cur = "default"
			}
			r.send(cid, "Current language: "+cur+r.languageList()+"\nUsage: /lang hi")
			return
		}
		code := strings.ToLower(args[0])
		if len(r.Languages.Codes()) > 0 && !r.Languages.Known(code) {
			r.send(cid, "Unknown language."+r.languageList())
			return
		}
		r.Sessions.Update(cid, func(s *session) { s.Language = code })
		r.send(cid, "✅ Language: "+code)

	case "engine":
		if len(args) == 0 {
			cur := r.Sessions.Get(cid).Provider
			if cur == "" {
				cur = "default"
			}
			r.send(cid, "Current engine: "+cur+"\nAvailable: "+strings.Join(r.Providers, " | "))
			return
		}
		name := strings.ToLower(args[0])
		if name == "openai" {
			name = "gpt"
		}
		if !r.knownProvider(name) {
			r.send(cid, "Unknown engine. Available: "+strings.Join(r.Providers, " | "))
			return
		}
		r.Sessions.Update(cid, func(s *session) { s.Provider = name })
		r.send(cid, "✅ Engine: "+name)

	case "fertilizer":
		if len(args) < 2 {
			r.send(cid, "Usage: /fertilizer <crop> <stage>, e.g. /fertilizer wheat flowering")
			return
		}
		crop := strings.Join(args[:len(args)-1], " ")
		stage := args[len(args)-1]
		r.advise(ctx, cid, types.FertilizerPlan, types.Artifact{}, types.Params{Crop: crop, Stage: stage}, "params")

	case "forecast", "weather", "prices":
		s := r.Sessions.Get(cid)
		if !s.hasLocation() {
			r.send(cid, "📍 Share your location first.")
			return
		}
		p := types.Params{Lat: s.Lat, Lon: s.Lon}
		u := types.WeatherForecast
		switch msg.Command() {
		case "weather":
			u = types.WeatherAdvisory
		case "prices":
			u = types.MarketPrices
			p.Crop = strings.Join(args, " ")
		}
		r.advise(ctx, cid, u, types.Artifact{}, p, "params")

	default:
		r.send(cid, "Unknown command. /help lists what I can do.")
	}
}

func (r *Router) languageList() string {
	codes := r.Languages.Codes()
	if len(codes) == 0 {
		return ""
	}
	return "\nAvailable: " + strings.Join(codes, " ")
}

func (r *Router) knownProvider(name string) bool {
	for _, p := range r.Providers {
		if p == name {
			return true
		}
	}
	return false
}
