package service

import (
	"fmt"
	"slices"

	"github.com/radake/polihub/shared/utils"
)

var nicknameAdjectives = []string{
	"Brave", "Swift", "Calm", "Bold", "Wise", "Bright", "Keen", "Quiet",
	"Steady", "Sharp", "Gentle", "Proud", "Clever", "Honest", "Lively", "Noble",
}

var nicknameAnimals = []string{
	"Simba", "Twiga", "Ndovu", "Chui", "Kifaru", "Punda", "Nyati", "Kiboko",
	"Fisi", "Duma", "Tai", "Korongo", "Swara", "Nyani", "Mbuni", "Pundamilia",
}

// AvatarEmojis is the set a visitor may choose from.
var AvatarEmojis = []string{
	"🦁", "🦒", "🐘", "🐆", "🦏", "🦓", "🐃", "🦛",
	"🐺", "🦅", "🦩", "🦌", "🐒", "🦜", "🐊", "🐢",
}

// Counties are the 47 counties of Kenya.
var Counties = []string{
	"Mombasa", "Kwale", "Kilifi", "Tana River", "Lamu", "Taita-Taveta", "Garissa", "Wajir",
	"Mandera", "Marsabit", "Isiolo", "Meru", "Tharaka-Nithi", "Embu", "Kitui", "Machakos",
	"Makueni", "Nyandarua", "Nyeri", "Kirinyaga", "Murang'a", "Kiambu", "Turkana", "West Pokot",
	"Samburu", "Trans-Nzoia", "Uasin Gishu", "Elgeyo-Marakwet", "Nandi", "Baringo", "Laikipia", "Nakuru",
	"Narok", "Kajiado", "Kericho", "Bomet", "Kakamega", "Vihiga", "Bungoma", "Busia",
	"Siaya", "Kisumu", "Homa Bay", "Migori", "Kisii", "Nyamira", "Nairobi",
}

func randomNickname() string {
	return fmt.Sprintf("%s%s%02d",
		nicknameAdjectives[utils.RandomIndex(len(nicknameAdjectives))],
		nicknameAnimals[utils.RandomIndex(len(nicknameAnimals))],
		utils.RandomIndex(100),
	)
}

func randomEmoji() string {
	return AvatarEmojis[utils.RandomIndex(len(AvatarEmojis))]
}

func randomCounty() string {
	return Counties[utils.RandomIndex(len(Counties))]
}

func validCounty(county string) bool {
	return slices.Contains(Counties, county)
}

func validEmoji(emoji string) bool {
	return slices.Contains(AvatarEmojis, emoji)
}
