package lexicon

import (
	"fmt"
	"strings"
)

// Katakana readings map to phone strings. Two-rune entries (contracted
// sounds and loanword spellings) win over single runes.
var (
	kanaPairs = map[string]string{
		"キャ": "k y a", "キュ": "k y u", "キョ": "k y o", "ギャ": "g y a", "ギュ": "g y u",
		"ギョ": "g y o", "シャ": "sh a", "シュ": "sh u", "ショ": "sh o", "ジャ": "j a", "ジュ": "j u",
		"ジョ": "j o", "チャ": "ch a", "チュ": "ch u", "チョ": "ch o", "ニャ": "n y a", "ニュ": "n y u",
		"ニョ": "n y o", "ヒャ": "h y a", "ヒュ": "h y u", "ヒョ": "h y o", "ビャ": "b y a",
		"ビュ": "b y u", "ビョ": "b y o", "ピャ": "p y a", "ピュ": "p y u", "ピョ": "p y o",
		"ミャ": "m y a", "ミュ": "m y u", "ミョ": "m y o", "リャ": "r y a", "リュ": "r y u",
		"リョ": "r y o", "ティ": "t i", "ディ": "d i", "ファ": "f a", "フィ": "f i", "フェ": "f e",
		"フォ": "f o", "フュ": "f y u", "チェ": "ch e", "シェ": "sh e", "ジェ": "j e", "ウィ": "u i",
		"ウェ": "u e", "ウォ": "u o", "ヴァ": "b a", "ヴィ": "b i", "ヴェ": "b e", "ヴォ": "b o",
		"トゥ": "t u", "ドゥ": "d u", "デュ": "d y u", "テュ": "t y u", "ツァ": "ts a", "ツィ": "ts i",
		"ツェ": "ts e", "ツォ": "ts o", "イェ": "i e", "クァ": "k w a", "グァ": "g w a",
	}
	kanaSingles = map[string]string{
		"ア": "a", "イ": "i", "ウ": "u", "エ": "e", "オ": "o", "カ": "k a", "キ": "k i", "ク": "k u",
		"ケ": "k e", "コ": "k o", "ガ": "g a", "ギ": "g i", "グ": "g u", "ゲ": "g e", "ゴ": "g o",
		"サ": "s a", "シ": "sh i", "ス": "s u", "セ": "s e", "ソ": "s o", "ザ": "z a", "ジ": "j i",
		"ズ": "z u", "ゼ": "z e", "ゾ": "z o", "タ": "t a", "チ": "ch i", "ツ": "ts u", "テ": "t e",
		"ト": "t o", "ダ": "d a", "ヂ": "j i", "ヅ": "z u", "デ": "d e", "ド": "d o", "ナ": "n a",
		"ニ": "n i", "ヌ": "n u", "ネ": "n e", "ノ": "n o", "ハ": "h a", "ヒ": "h i", "フ": "f u",
		"ヘ": "h e", "ホ": "h o", "バ": "b a", "ビ": "b i", "ブ": "b u", "ベ": "b e", "ボ": "b o",
		"パ": "p a", "ピ": "p i", "プ": "p u", "ペ": "p e", "ポ": "p o", "マ": "m a", "ミ": "m i",
		"ム": "m u", "メ": "m e", "モ": "m o", "ヤ": "y a", "ユ": "y u", "ヨ": "y o", "ラ": "r a",
		"リ": "r i", "ル": "r u", "レ": "r e", "ロ": "r o", "ワ": "w a", "ヲ": "o", "ァ": "a",
		"ィ": "i", "ゥ": "u", "ェ": "e", "ォ": "o", "ン": "ng", "ッ": "q", "ー": "long", "ヴ": "b u",
	}
)

// KanaPhones converts a katakana reading to phones by longest match.
func KanaPhones(kana string) ([]string, error) {
	runes := []rune(kana)
	var phones []string
	for i := 0; i < len(runes); {
		if i+1 < len(runes) {
			if ph, ok := kanaPairs[string(runes[i:i+2])]; ok {
				phones = append(phones, strings.Fields(ph)...)
				i += 2
				continue
			}
		}
		ph, ok := kanaSingles[string(runes[i])]
		if !ok {
			return nil, fmt.Errorf("no phones for %q in reading %q", runes[i], kana)
		}
		phones = append(phones, strings.Fields(ph)...)
		i++
	}
	return phones, nil
}
