package parser

import (
	"regexp"
	"strconv"
	"strings"

	"ehclient/lib/gallery"

	"github.com/PuerkitoBio/goquery"
)

// UserInfo parses a forum profile page.
func UserInfo(doc *goquery.Document) (gallery.User, error) {
	name := text(doc.Find("#profilename"))
	if name == "" {
		return gallery.User{}, parseErr("profile name not found")
	}
	avatar := doc.Find("#profilename ~ div img").First().AttrOr("src", "")
	return gallery.User{
		DisplayName: name,
		AvatarURL:   avatar,
	}, nil
}

const favoriteCategoryCount = 10

// FavoriteNames parses the favorite category names out of the settings page.
func FavoriteNames(doc *goquery.Document) (map[int]string, error) {
	names := map[int]string{}
	doc.Find(`input[name^="favorite_"]`).Each(func(_ int, input *goquery.Selection) {
		index, err := strconv.Atoi(strings.TrimPrefix(input.AttrOr("name", ""), "favorite_"))
		if err != nil || index < 0 || index >= favoriteCategoryCount {
			return
		}
		names[index] = input.AttrOr("value", "")
	})
	if len(names) != favoriteCategoryCount {
		return nil, parseErr("expected %d favorite categories, found %d", favoriteCategoryCount, len(names))
	}
	return names, nil
}

// ProfileName is the settings profile the client creates and selects for
// itself.
const ProfileName = "EhPanda"

// ProfileIndex finds the settings profile named ProfileName. found is false
// when the profile selector exists but the profile doesn't.
func ProfileIndex(doc *goquery.Document) (index int, found bool, err error) {
	selector := doc.Find(`select[name="profile_set"]`)
	if selector.Length() == 0 {
		return 0, false, parseErr("profile selector not found")
	}

	selector.Find("option").EachWithBreak(func(_ int, option *goquery.Selection) bool {
		if text(option) != ProfileName {
			return true
		}
		v, convErr := strconv.Atoi(option.AttrOr("value", ""))
		if convErr != nil {
			err = parseErr("bad profile value: %s", convErr.Error())
			return false
		}
		index = v
		found = true
		return false
	})
	if err != nil {
		return 0, false, err
	}
	return index, found, nil
}

// ProfileCount is the number of settings profiles listed.
func ProfileCount(doc *goquery.Document) int {
	return doc.Find(`select[name="profile_set"] option`).Length()
}

var gainRegex = regexp.MustCompile(`(\d[\d,]*)\s+(EXP|Credits|GP|Hath)`)

// Greeting parses the event pane of the news page. A page without the dawn
// of a new day event is a parse failure, the update time is left to the
// caller.
func Greeting(doc *goquery.Document) (gallery.Greeting, error) {
	pane := doc.Find("#eventpane")
	if pane.Length() == 0 {
		return gallery.Greeting{}, parseErr("event pane not found")
	}
	content := text(pane)
	if !strings.Contains(content, "dawn of a new day") {
		return gallery.Greeting{}, parseErr("event pane holds no greeting")
	}

	greeting := gallery.Greeting{}
	for _, match := range gainRegex.FindAllStringSubmatch(content, -1) {
		v, err := strconv.Atoi(strings.ReplaceAll(match[1], ",", ""))
		if err != nil {
			continue
		}
		switch match[2] {
		case "EXP":
			greeting.GainedEXP = v
		case "Credits":
			greeting.GainedCredits = v
		case "GP":
			greeting.GainedGP = v
		case "Hath":
			greeting.GainedHath = v
		}
	}
	return greeting, nil
}
