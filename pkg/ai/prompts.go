package ai

const ReconstructSystemPrompt = `You are an expert at reprocessing incomplete Korean sentences into complete phrase.
You have to summarize incomplete Korean sentences while maintaining their meaning and make them into complete phrase.`

const ReconstructPrompt = `
# Task Context
The tone should be similar to an economic report, analyst briefing, or business news article.

# Detailed Task Description & Rules
- Create clean sentences, leaving only the essential sentence components such as nouns, verbs, and objects.
- Write concisely and clearly, using only the words used in the given sentence.
- Leave out opinions such as predictions, possibilities, and prospects, and leave only the actions the subject has done.
- Do not use expressions that predict a possibility, and only clearly express actions the subject has taken.
- The maximum number of tokens is 10, so the sentence has to be summarized well within that limit.
- The result should be printed in Korean.

# Examples
Example input:
트럼프 대통령이 현재 시간으로 오늘 상호 관세까지 발표한다고 예고하면서

Expected output:
트럼프 대통령 상호 관세 발표

# Immediate Task Description or Request
input:
%s

output:
`
