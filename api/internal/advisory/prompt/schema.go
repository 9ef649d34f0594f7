package prompt

// Example outputs embedded in prompts. Field names are consumed by the
// rendering layer, so keep them stable.

const DiagnosisSchema = `{
  "diagnosis": {
    "crop": "Tomato",
    "disease": "Early Blight",
    "pathogen": "Alternaria solani",
    "confidence": 0.86,
    "severity": "moderate",
    "symptoms": ["Brown concentric rings on older leaves", "Yellowing around lesions"],
    "causes": ["Warm humid weather", "Infected plant debris in soil"],
    "treatment": {
      "organic": ["Remove and destroy infected leaves", "Spray neem oil 5 ml/litre every 7 days"],
      "chemical": [
        {"name": "Mancozeb 75% WP", "dosage": "2.5 g/litre", "interval": "10 days"}
      ]
    },
    "prevention": ["Rotate crops for 2 seasons", "Avoid overhead irrigation"],
    "urgency": "Act within 3 days",
    "notes": "Consult the local Krishi Vigyan Kendra if spread continues."
  }
}`

const FertilizerPlanSchema = `{
  "fertilizerPlan": {
    "crop": "Wheat",
    "stage": "Flowering",
    "recommendedFertilizers": [
      {
        "name": "Urea",
        "dosage": "25 kg/acre",
        "applicationMethod": "Top dressing",
        "timing": "Before irrigation"
      }
    ],
    "micronutrientRecommendations": ["Zinc sulphate 5 kg/acre if leaves show striping"],
    "organicAmendments": ["Vermicompost 1 ton/acre"],
    "safetyAndEnvironmentalTips": ["Do not apply before heavy rain"],
    "notes": "Split nitrogen doses to reduce losses."
  }
}`

const WeatherAdvisorySchema = `{
  "advisory": {
    "location": {"lat": 28.61, "lon": 77.21},
    "summary": "Hot and dry week with a chance of rain on Friday.",
    "advisoryText": "Irrigate early in the morning and delay spraying until after the rain.",
    "risks": ["Heat stress during flowering"],
    "actions": ["Mulch to retain soil moisture", "Postpone urea top dressing"],
    "irrigation": "Light irrigation every 4 days",
    "sprayWindow": "Tuesday and Wednesday mornings"
  }
}`

const ProjectPlanSchema = `{
  "cropPlan": {
    "crop": "Wheat",
    "variety": "HD2967",
    "totalDuration": "120 days",
    "budget": {
      "landPreparation": 5000,
      "seeds": 2000,
      "fertilizers": 3500,
      "irrigation": 2500,
      "pestControl": 1500,
      "harvesting": 3000,
      "total": 17500
    },
    "steps": [
      {
        "stage": "Land Preparation",
        "duration": "7 days",
        "tasks": ["Plough the field twice", "Level the soil"]
      },
      {
        "stage": "Vegetative Growth",
        "duration": "40 days",
        "fertilizers": [
          {
            "name": "Urea",
            "dosage": "50 kg/acre",
            "applicationMethod": "Broadcasting",
            "timing": "15 days after sowing"
          }
        ],
        "tasks": ["Irrigate every 7 days", "Weed control"]
      },
      {
        "stage": "Harvesting",
        "duration": "10 days",
        "tasks": ["Harvest when grains are golden brown", "Store in dry conditions"]
      }
    ],
    "organicAmendments": ["Compost 2 tons/acre before sowing"],
    "micronutrients": ["Zinc 5 kg/acre at sowing"],
    "safetyAndEnvironmentalTips": ["Wear gloves while handling chemicals"],
    "notes": "Adjust irrigation to the weather."
  }
}`

const WeatherForecastSchema = `[
  {
    "date": "2026-06-01",
    "day": "Monday",
    "high": 36,
    "low": 27,
    "condition": "Partly cloudy",
    "rainPercent": 20
  }
]`

const MarketPricesSchema = `[
  {
    "crop": "Onion",
    "currentPrice": 2150,
    "unit": "INR/quintal",
    "market": "Lasalgaon APMC",
    "quality": "FAQ",
    "date": "2026-06-01"
  }
]`

const MarketPriceSchema = `{
  "crop": "Onion",
  "currentPrice": 2150,
  "unit": "INR/quintal",
  "market": "Lasalgaon APMC",
  "quality": "FAQ",
  "date": "2026-06-01"
}`
