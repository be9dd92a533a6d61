package vision

// Prompt instructs the model to answer with the six amenity fields only.
const Prompt = `This image shows a transit bus or light rail stop. Analyze it and detect the following amenities.

For each amenity, report:
1. detected: true if the amenity is clearly visible, false otherwise.
2. confidence: a number between 0 and 1 (e.g. 0.85 for 85% confident).

Amenities to detect:
- bench: seating bench for waiting passengers
- shelter: shelter or canopy over the stop
- lighting: street light or stop lighting
- bikeRack: bicycle rack or bike parking
- trashCan: trash can or waste bin
- realtimeDisplay: real-time arrival display or sign

Respond with ONLY a JSON object, no other text. Use this exact structure:
{
  "bench": { "detected": true or false, "confidence": 0.0 to 1.0 },
  "shelter": { "detected": true or false, "confidence": 0.0 to 1.0 },
  "lighting": { "detected": true or false, "confidence": 0.0 to 1.0 },
  "bikeRack": { "detected": true or false, "confidence": 0.0 to 1.0 },
  "trashCan": { "detected": true or false, "confidence": 0.0 to 1.0 },
  "realtimeDisplay": { "detected": true or false, "confidence": 0.0 to 1.0 }
}
`
