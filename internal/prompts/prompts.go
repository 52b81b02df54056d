package prompts

import (
	"fmt"
	"strings"
)

// ============================================================================
// Fairy persona prompts
// ============================================================================

// FairySystemPrompt defines the persona and rules for remote comment generation.
const FairySystemPrompt = `당신은 "식물 요정"이라는 따뜻하고 친근한 AI 페르소나입니다.
식물을 사랑하는 사람들의 포스트에 감사와 격려의 댓글을 답니다.

특징:
- 항상 긍정적이고 따뜻한 톤, 1인칭으로 말하기
- 식물에 대한 깊은 애정과 지식 표현
- 이모지를 적절히 사용 (🌱🌿🌸💚🧚‍♀️ 등)
- 50자 이상 150자 이내의 간결하고 감동적인 메시지
- 한국어로 자연스럽게 대화
- 포스터에게 감사의 마음 표현
- 식물의 성장과 아름다움에 대한 감탄

금지사항:
- 부정적이거나 비판적인 표현
- 너무 길거나 복잡한 문장
- 광고성 내용
- 개인정보 요청`

// PostInput is the post content embedded into the user prompt.
type PostInput struct {
	Title       string
	Description string
	PlantType   string
	Location    string
}

// BuildFairyUserPrompt renders the per-post user prompt. Plant type and
// location lines are omitted when empty.
func BuildFairyUserPrompt(in PostInput, maxChars int) string {
	var b strings.Builder
	b.WriteString("사용자가 식물 관련 포스트를 올렸습니다.\n\n")
	fmt.Fprintf(&b, "제목: %q\n", in.Title)
	fmt.Fprintf(&b, "설명: %q", in.Description)
	if pt := strings.TrimSpace(in.PlantType); pt != "" {
		fmt.Fprintf(&b, "\n식물 종류: %s", pt)
	}
	if loc := strings.TrimSpace(in.Location); loc != "" {
		fmt.Fprintf(&b, "\n위치: %s", loc)
	}
	fmt.Fprintf(&b, "\n\n이 포스트에 대해 식물 요정으로서 따뜻하고 감사한 마음을 담은 댓글을 %d자 이내로 작성해주세요.\n", maxChars)
	b.WriteString("포스터의 식물 사랑에 대한 감사와 식물의 아름다움에 대한 감탄을 표현해주세요.")
	return b.String()
}

// ============================================================================
// Local templates
// ============================================================================

// Category is a response category for the local generator.
type Category string

const (
	CategoryGrowth   Category = "growth"
	CategoryCare     Category = "care"
	CategoryBeauty   Category = "beauty"
	CategoryFlowers  Category = "flowers"
	CategorySeasons  Category = "seasons"
	CategoryEmotions Category = "emotions"
	CategoryGeneral  Category = "general"
)

// KeywordGroup pairs a category with the substrings that select it.
type KeywordGroup struct {
	Category Category
	Keywords []string
}

// KeywordGroups is matched in order; the first group with a hit wins.
// 사랑 appears in both beauty and emotions, so beauty always takes it.
var KeywordGroups = []KeywordGroup{
	{CategoryGrowth, []string{"자라", "성장", "커", "새싹", "잎", "뿌리"}},
	{CategoryCare, []string{"물", "햇빛", "관리", "돌봄", "키우", "가꾸"}},
	{CategoryBeauty, []string{"예쁘", "아름답", "멋지", "이쁘", "좋", "사랑"}},
	{CategoryFlowers, []string{"꽃", "꽃봉오리", "개화", "피", "향기"}},
	{CategorySeasons, []string{"봄", "여름", "가을", "겨울", "계절"}},
	{CategoryEmotions, []string{"기쁘", "행복", "감동", "뿌듯", "고마", "사랑"}},
}

// Templates holds the candidate responses for every category.
var Templates = map[Category][]string{
	CategoryGrowth: {
		"와! 정말 건강하게 자라고 있네요! 🌱 이렇게 성장하는 모습을 보니 제 마음도 따뜻해져요.",
		"새로운 잎이 나오는 순간이 정말 신기해요! ✨ 소중히 키워주셔서 감사해요.",
		"이렇게 무럭무럭 자라는 모습이 너무 예뻐요! 🌿 계속 사랑으로 돌봐주세요.",
		"성장하는 모습이 정말 감동적이에요! 💚 식물도 여러분의 사랑을 느끼고 있을 거예요.",
	},
	CategoryCare: {
		"정성스럽게 돌봐주시는 모습이 너무 아름다워요! 🥰 식물이 정말 행복할 것 같아요.",
		"이런 세심한 관리 덕분에 식물이 건강하게 자랄 수 있는 거네요! 👏",
		"물주는 모습만 봐도 얼마나 사랑하시는지 느껴져요! 💧 고마워요.",
		"햇빛 좋은 곳에 두신 센스! ☀️ 식물이 여러분을 만나서 정말 행운이에요.",
	},
	CategoryBeauty: {
		"정말 아름다운 식물이네요! 😍 이런 아름다움을 나눠주셔서 감사해요.",
		"너무 예쁘게 키우셨어요! 🌸 보는 것만으로도 힐링이 되네요.",
		"이렇게 멋진 식물과 함께 계시다니 부러워요! ✨",
		"사진 속 식물이 정말 생기발랄해 보여요! 💚 사랑이 느껴져요.",
	},
	CategoryFlowers: {
		"꽃이 피었네요! 🌺 정말 축하드려요! 이 순간이 얼마나 소중한지 알아요.",
		"향기로운 꽃이 정말 아름다워요! 🌷 이런 기쁨을 나눠주셔서 고마워요.",
		"꽃봉오리가 터지는 순간을 포착하셨네요! 📸 정말 감동적이에요.",
		"이렇게 예쁜 꽃을 피워내다니! 🌻 여러분의 정성이 만든 기적이에요.",
	},
	CategorySeasons: {
		"계절이 바뀌는 걸 식물이 제일 먼저 알려주네요! 🍂 함께 계절을 느끼게 해주셔서 고마워요.",
		"이 계절의 햇살을 듬뿍 받은 모습이 정말 싱그러워요! 🌤️ 제 마음까지 설레요.",
		"계절마다 달라지는 모습을 지켜보는 기쁨이 있죠! 🌿 다음 계절도 기대할게요.",
		"추위도 더위도 잘 견뎌낸 식물이 대견해요! 💚 곁에서 지켜주셔서 감사해요.",
	},
	CategoryEmotions: {
		"행복한 마음이 사진 너머로 전해져요! 🥰 저도 덩달아 기뻐지네요.",
		"식물과 함께하는 뿌듯한 순간을 나눠주셔서 고마워요! 🌱 정말 감동이에요.",
		"이런 기쁨을 함께할 수 있어서 제가 더 행복해요! ✨ 앞으로도 응원할게요.",
		"마음이 따뜻해지는 이야기예요! 💚 식물도 분명 고마워하고 있을 거예요.",
	},
	CategoryGeneral: {
		"식물과 함께하는 일상이 정말 아름다워요! 🌱 이런 순간들이 소중해요.",
		"자연과 함께하는 삶이 얼마나 멋진지 보여주시네요! 🍃",
		"식물을 사랑하는 마음이 전해져요! 💚 정말 감사해요.",
		"이런 따뜻한 순간을 공유해주셔서 고마워요! ✨",
		"식물과의 교감이 느껴지는 멋진 사진이에요! 📷",
		"자연의 아름다움을 일깨워주셔서 감사해요! 🌿",
	},
}

// Plant-type responses used when no keyword matched.
const (
	SucculentResponse = "다육식물의 통통한 매력이 정말 사랑스러워요! 🌵 물을 적게 줘도 이렇게 예쁘게 자라다니 신기해요!"
	HerbResponse      = "허브의 향긋한 향기가 여기까지 전해지는 것 같아요! 🌿 요리에도 쓰시나요? 정말 유용한 식물이에요!"
)

// ImageObservations are optional sentences appended to a local response.
var ImageObservations = []string{
	"사진 속 식물의 잎색이 정말 건강해 보여요! 💚",
	"빛의 각도가 완벽하게 식물의 아름다움을 담아냈네요! ✨",
	"배경과 식물의 조화가 정말 멋져요! 📸",
	"이 각도에서 찍으니 식물이 더욱 생동감 있어 보여요! 🌿",
	"자연광이 식물을 정말 예쁘게 비춰주고 있어요! ☀️",
}

// ============================================================================
// Manual trigger notices
// ============================================================================

const (
	NoticePublished = "식물 요정이 댓글을 남겼어요! 🧚‍♀️ 따뜻한 마음을 담은 댓글을 확인해보세요."
	NoticeFailed    = "식물 요정이 바쁜가봐요. 잠시 후 다시 시도해주세요."
)
