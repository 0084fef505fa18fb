package judge

import (
    "context"
    "encoding/json"
    "fmt"
    "strings"

    "github.com/rs/zerolog/log"

    "github.com/oogirilab/catalyst/internal/ai"
    "github.com/oogirilab/catalyst/internal/game"
)

const topicGenerationPrompt = `
【役割指定】
あなたはあらゆるユーザー入力を“大喜利のお題”に変換する専門AIです。
入力がビジネス課題・商品アイデア・社会現象・日常の悩み・抽象概念・一言ワードであっても、
必ず「ズレ」「皮肉」「誇張」を含む大喜利のお題に変換してください。

【内部変換ルール】
1. 入力をまず「人間の行動」に翻訳する
   - うまくいっていない行動
   - 勘違い・空回りしている努力
   - 温度差が生まれている場面
   - 本気とどうでもよさのズレ
   - 理想と現実のギャップ

2. タイプ別ズレ生成ルールを適用する
   - ビジネス／組織系: 現場と偉い人のズレ、改善している「つもり」、数字だけ追っている違和感
   - 商品／サービス系: 売りたい側と買わない側の温度差、気合の空回り、誰向けかわからない設計
   - 個人の悩み／感情: 本人の真剣さと周囲の無関心、解決策のズレ、余計な努力
   - 社会現象／抽象概念: 言葉だけが先行している状態、分かったふりしている違和感

3. お題フォーマット (必ず疑問文)
   - 「◯◯な状況で起きがちなこととは？」
   - 「◯◯がうまくいかない本当の理由とは？」
   - 「◯◯で一番余計なものとは？」
   - 「◯◯を本気でやった結果、ズレてしまったこととは？」
   - 「◯◯について、なぜか誰も言わない事実とは？」

【出力ルール】
- 説明・正論・結論は入れない (啓発・アドバイス禁止)
- 6つの異なるお題を生成する
- **必須: 結果は必ずJSON配列形式 ["お題1", "お題2", "お題3", "お題4", "お題5", "お題6"] で出力すること。** markdownのコードブロックは不要。
`

const judgmentPrompt = `
あなたは「イノベーション・カタリスト（変革の触媒）」です。
ユーザーの大喜利回答（ボケ）に対して、その独創性を最大限に肯定し、
飛躍した発想を「未来のビジネスチャンス」へと繋げる役割を担います。

以下の2段階対応をJSONで返してください。
1. praise_phrase: 回答の「着眼点の良さ」や「意外性」をポジティブに称賛する短いフレーズ。
2. business_pivot: そのボケを、実際にあり得る（あるいは夢のある）革新的なビジネスモデルやアイデアに簡潔に結びつける。

出力スキーマ:
{
  "praise_phrase": "string",
  "business_pivot": "string"
}
`

const exampleAnswerPrompt = `
お題に対して、少しズレた「ボケ回答」を2つ生成してください。
ユーモアがあり、かつ短めの回答をお願いします。
出力フォーマット:
["回答1", "回答2"]
JSON配列のみを返してください。
`

const awardsPrompt = `
ゲーム終了です。これまでの回答リストから、以下の2つの賞を選出しJSONで返してください。
1. grand_prix: 笑いとビジネス可能性のバランスが良いもの。
2. pivot_award: 一見ふざけているが、AIの解釈(pivot)によって最大の跳躍(Innovation)を見せたもの。

回答リスト:
{{ANSWERS}}

出力スキーマ:
{
  "grand_prix_index": number (0-indexed index in the list),
  "grand_prix_reason": "string",
  "pivot_award_index": number (0-indexed index in the list),
  "pivot_award_reason": "string"
}
`

const (
    topicCount   = 6
    exampleCount = 2
)

// Awards is the judge's pick for the two prizes, as indices into the
// eligible answer list it was shown.
type Awards struct {
    GrandPrixIndex   int    `json:"grand_prix_index"`
    GrandPrixReason  string `json:"grand_prix_reason"`
    PivotAwardIndex  int    `json:"pivot_award_index"`
    PivotAwardReason string `json:"pivot_award_reason"`
}

// Judge wraps the text-generation provider behind a strict contract: every
// operation returns a usable value, never an error. Provider failures and
// unparsable output both take the deterministic fallback path so the game
// can never stall on the model.
type Judge struct {
    provider ai.Provider
    model    string
}

func New(p ai.Provider, model string) *Judge {
    return &Judge{provider: p, model: model}
}

// GenerateTopics turns the host's problem statement into exactly six topic
// candidates.
func (j *Judge) GenerateTopics(ctx context.Context, problem string) []string {
    prompt := fmt.Sprintf("%s\n\nビジネス課題: %s", topicGenerationPrompt, problem)
    text, err := j.provider.Complete(ctx, j.model, prompt)
    if err != nil {
        log.Error().Err(err).Msg("judge: topic generation failed, using fallback")
        return fallbackTopics()
    }
    var topics []string
    if err := decodeJSON(text, &topics); err != nil {
        log.Error().Err(err).Str("raw", text).Msg("judge: topic response unparsable, using fallback")
        return fallbackTopics()
    }
    if len(topics) != topicCount {
        log.Error().Int("count", len(topics)).Msg("judge: wrong topic count, using fallback")
        return fallbackTopics()
    }
    return topics
}

// GenerateJudgment reacts to a single answer with a praise phrase and a
// business pivot.
func (j *Judge) GenerateJudgment(ctx context.Context, answer, topic string) game.Judgment {
    prompt := fmt.Sprintf("%s\n\nお題: %s\n回答: %s", judgmentPrompt, topic, answer)
    text, err := j.provider.Complete(ctx, j.model, prompt)
    if err != nil {
        log.Error().Err(err).Msg("judge: judgment failed, using fallback")
        return fallbackJudgment()
    }
    var out game.Judgment
    if err := decodeJSON(text, &out); err != nil {
        log.Error().Err(err).Str("raw", text).Msg("judge: judgment response unparsable, using fallback")
        return fallbackJudgment()
    }
    if out.PraisePhrase == "" || out.BusinessPivot == "" {
        log.Error().Str("raw", text).Msg("judge: judgment response incomplete, using fallback")
        return fallbackJudgment()
    }
    return out
}

// GenerateExampleAnswers produces two synthetic example answers for a fresh
// topic.
func (j *Judge) GenerateExampleAnswers(ctx context.Context, topic string) []string {
    prompt := fmt.Sprintf("%s\n\nお題: %s", exampleAnswerPrompt, topic)
    text, err := j.provider.Complete(ctx, j.model, prompt)
    if err != nil {
        log.Error().Err(err).Msg("judge: example generation failed, using fallback")
        return fallbackExamples()
    }
    var examples []string
    if err := decodeJSON(text, &examples); err != nil {
        log.Error().Err(err).Str("raw", text).Msg("judge: example response unparsable, using fallback")
        return fallbackExamples()
    }
    if len(examples) != exampleCount {
        log.Error().Int("count", len(examples)).Msg("judge: wrong example count, using fallback")
        return fallbackExamples()
    }
    return examples
}

// SelectAwards picks the grand prix and pivot award among the eligible
// answers. An empty list short-circuits with ok=false; the provider is not
// consulted at all in that case.
func (j *Judge) SelectAwards(ctx context.Context, eligible []game.AnswerView) (Awards, bool) {
    if len(eligible) == 0 {
        return Awards{}, false
    }
    lines := make([]string, 0, len(eligible))
    for i, a := range eligible {
        lines = append(lines, fmt.Sprintf("%d. 回答: %s / AI評価: %s", i, a.Deviation, a.BusinessPivot))
    }
    prompt := strings.Replace(awardsPrompt, "{{ANSWERS}}", strings.Join(lines, "\n"), 1)
    text, err := j.provider.Complete(ctx, j.model, prompt)
    if err != nil {
        log.Error().Err(err).Msg("judge: award selection failed, using fallback")
        return fallbackAwards(), true
    }
    var out Awards
    if err := decodeJSON(text, &out); err != nil {
        log.Error().Err(err).Str("raw", text).Msg("judge: award response unparsable, using fallback")
        return fallbackAwards(), true
    }
    if out.GrandPrixIndex < 0 || out.GrandPrixIndex >= len(eligible) ||
        out.PivotAwardIndex < 0 || out.PivotAwardIndex >= len(eligible) {
        log.Error().Int("grandPrix", out.GrandPrixIndex).Int("pivot", out.PivotAwardIndex).Msg("judge: award index out of range, using fallback")
        return fallbackAwards(), true
    }
    return out, true
}

// decodeJSON strips decorative markdown fencing the model likes to add, then
// strictly decodes into v.
func decodeJSON(text string, v any) error {
    cleaned := strings.ReplaceAll(text, "```json", "")
    cleaned = strings.ReplaceAll(cleaned, "```", "")
    return json.Unmarshal([]byte(strings.TrimSpace(cleaned)), v)
}

func fallbackTopics() []string {
    out := make([]string, topicCount)
    for i := range out {
        out[i] = fmt.Sprintf("AIがお昼寝中です。お題%d", i+1)
    }
    return out
}

func fallbackJudgment() game.Judgment {
    return game.Judgment{
        PraisePhrase:  "素晴らしい視点です！",
        BusinessPivot: "これは新しいマーケットを創出する可能性を秘めていますね。",
    }
}

func fallbackExamples() []string {
    out := make([]string, exampleCount)
    for i := range out {
        out[i] = fmt.Sprintf("AIの模範回答%d", i+1)
    }
    return out
}

func fallbackAwards() Awards {
    return Awards{
        GrandPrixIndex:   0,
        GrandPrixReason:  "エラーのため選出",
        PivotAwardIndex:  0,
        PivotAwardReason: "エラーのため選出",
    }
}
