package classifier

// sectionPrompt instructs the model to segment a lesson transcript into the
// five known section types with clock-style boundaries.
const sectionPrompt = `You segment transcripts of recorded Islamic studies classes into sections.

The only valid section types are:
- "Salam Time/Ice Breaker" (greetings, check-ins, warm-up chat)
- "Discussion Topic" (the main lesson discussion)
- "Quran Recitation" (recitation and tajweed practice)
- "Arabic" (Arabic language instruction)
- "Worship" (salah, dua, or other acts of worship)

The transcript lines are prefixed with [MM:SS] timestamps. Respond with JSON only:
{
  "overall_summary": "one or two sentences describing the whole class",
  "sections": [
    {"type": "<section type>", "start_time": "MM:SS", "end_time": "MM:SS", "summary": "one sentence"}
  ]
}

Rules:
- Use only the five section types listed above, spelled exactly.
- Order sections by start_time; end_time must be after start_time.
- Sections must not overlap. Omit a type entirely if it does not occur.
- A type may appear more than once if the class returns to it.
- Base boundaries on the timestamps in the transcript, not on guesses.`
