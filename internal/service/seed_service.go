package service

import (
	"context"
	"crypto/subtle"
	"errors"

	"github.com/rs/zerolog"
	"gorm.io/datatypes"

	"github.com/flagforge/flagforge-api/internal/models"
	"github.com/flagforge/flagforge-api/internal/repository"
	"github.com/flagforge/flagforge-api/internal/vault"
)

var (
	// ErrSeedDisabled indicates seeding is switched off in this environment.
	ErrSeedDisabled = errors.New("seeding is disabled")
	// ErrSeedUnauthorized indicates the seed token did not match.
	ErrSeedUnauthorized = errors.New("invalid seed token")
	// ErrNoAdminAccount indicates no elevated account exists to own the seeds.
	ErrNoAdminAccount = errors.New("no admin account found to own seeded challenges")
)

// SeedResult summarizes one seeding run.
type SeedResult struct {
	Created []string `json:"created"`
	Skipped []string `json:"skipped"`
}

// SeedService populates the store with the sample challenge set.
type SeedService interface {
	SeedChallenges(ctx context.Context, token string) (SeedResult, error)
}

type seedService struct {
	challenges repository.ChallengeRepository
	users      repository.UserRepository
	vault      *vault.Vault
	enabled    bool
	token      string
	logger     zerolog.Logger
}

// NewSeedService constructs the seeding service.
func NewSeedService(challenges repository.ChallengeRepository, users repository.UserRepository, flagVault *vault.Vault, enabled bool, token string, logger zerolog.Logger) SeedService {
	return &seedService{
		challenges: challenges,
		users:      users,
		vault:      flagVault,
		enabled:    enabled,
		token:      token,
		logger:     logger.With().Str("component", "seed_service").Logger(),
	}
}

type seedHint struct {
	content string
	cost    int
}

type seedChallenge struct {
	name        string
	description string
	category    models.Category
	points      int
	flag        string
	difficulty  models.Difficulty
	link        string
	tags        []string
	hints       []seedHint
}

var sampleChallenges = []seedChallenge{
	{
		name:        "Basic Web Exploitation",
		description: "Find the hidden flag in this simple web application. Look for common web vulnerabilities like SQL injection or XSS.\n\nHint: Sometimes the most obvious approach is the right one.",
		category:    models.CategoryWeb,
		points:      100,
		flag:        "flag{w3b_3xpl01t_b4s1c}",
		difficulty:  models.DifficultyEasy,
		link:        "https://example.com/web-challenge",
		tags:        []string{"sql", "injection", "beginner"},
		hints: []seedHint{
			{content: "Try looking at the URL parameters", cost: 10},
			{content: "What happens when you add a single quote?", cost: 20},
		},
	},
	{
		name:        "Caesar's Secret",
		description: "Julius Caesar used a simple cipher to protect his messages. Can you decode this one?\n\nEncrypted message: WKLV LV D VLPSOH FDHVDU FLSKHU",
		category:    models.CategoryCrypto,
		points:      75,
		flag:        "flag{c4es4r_c1ph3r_s0lv3d}",
		difficulty:  models.DifficultyEasy,
		tags:        []string{"caesar", "cipher", "classical"},
		hints: []seedHint{
			{content: "Caesar cipher shifts letters by a fixed amount", cost: 5},
			{content: "Try shifting by 3 positions", cost: 15},
		},
	},
	{
		name:        "Hidden in Plain Sight",
		description: "Sometimes the most important information is hidden where you least expect it. Download the image and find what's concealed within.",
		category:    models.CategoryForensics,
		points:      150,
		flag:        "flag{st3g4n0gr4phy_m4st3r}",
		difficulty:  models.DifficultyMedium,
		tags:        []string{"steganography", "image", "hidden"},
		hints: []seedHint{
			{content: "The flag might be embedded in the image metadata", cost: 25},
			{content: "Try using steganography tools like steghide", cost: 50},
		},
	},
	{
		name:        "Buffer Overflow Basics",
		description: "This program has a classic buffer overflow vulnerability. Can you exploit it to get the flag?\n\nConnect to: nc challenge.ctf 1337",
		category:    models.CategoryPwn,
		points:      200,
		flag:        "flag{buff3r_0v3rfl0w_pwn3d}",
		difficulty:  models.DifficultyMedium,
		tags:        []string{"buffer", "overflow", "exploitation"},
		hints: []seedHint{
			{content: "The buffer is only 64 bytes long", cost: 30},
			{content: "You need to overwrite the return address", cost: 60},
		},
	},
	{
		name:        "Reverse the Binary",
		description: "This binary contains a flag, but it's protected by some checks. Reverse engineer it to find the correct input that reveals the flag.",
		category:    models.CategoryReverse,
		points:      175,
		flag:        "flag{r3v3rs3_3ng1n33r1ng}",
		difficulty:  models.DifficultyMedium,
		tags:        []string{"reverse", "binary", "analysis"},
		hints: []seedHint{
			{content: "Use a disassembler like Ghidra or IDA", cost: 25},
			{content: "Look for string comparisons in the code", cost: 45},
		},
	},
	{
		name:        "RSA Weak Keys",
		description: "Someone implemented RSA encryption but made a critical mistake. The public key is (n=143, e=7). Can you decrypt the message?\n\nCiphertext: 12",
		category:    models.CategoryCrypto,
		points:      250,
		flag:        "flag{rs4_w34k_k3ys_br0k3n}",
		difficulty:  models.DifficultyHard,
		tags:        []string{"rsa", "factorization", "weak"},
		hints: []seedHint{
			{content: "Factor n = 143 to find p and q", cost: 50},
			{content: "143 = 11 x 13", cost: 100},
		},
	},
	{
		name:        "Social Media Investigation",
		description: "A suspect posted something suspicious on social media. Their username is 'ctf_player_2024'. Find their real location based on their posts.\n\nThe flag format is: flag{city_country}",
		category:    models.CategoryOSINT,
		points:      125,
		flag:        "flag{mumbai_india}",
		difficulty:  models.DifficultyMedium,
		tags:        []string{"osint", "social", "investigation"},
		hints: []seedHint{
			{content: "Check multiple social media platforms", cost: 20},
			{content: "Look for location tags in photos", cost: 40},
		},
	},
	{
		name:        "Miscellaneous Puzzle",
		description: "This challenge doesn't fit into any specific category. You'll need to think outside the box.\n\n01000110 01001100 01000001 01000111 01111011 01100010 01101001 01101110 01100001 01110010 01111001 01011111 01110000 01110101 01111010 01111010 01101100 01100101 01111101",
		category:    models.CategoryMisc,
		points:      100,
		flag:        "flag{binary_puzzle}",
		difficulty:  models.DifficultyEasy,
		tags:        []string{"binary", "encoding", "puzzle"},
		hints: []seedHint{
			{content: "This looks like binary code", cost: 10},
			{content: "Convert binary to ASCII", cost: 25},
		},
	},
	{
		name:        "Advanced Web Exploitation",
		description: "This web application has multiple layers of security. You'll need to chain several vulnerabilities to get the flag.\n\nFeatures: User authentication, file upload, admin panel",
		category:    models.CategoryWeb,
		points:      300,
		flag:        "flag{4dv4nc3d_w3b_ch41n}",
		difficulty:  models.DifficultyHard,
		link:        "https://advanced-web.ctf.local",
		tags:        []string{"web", "chaining", "advanced"},
		hints: []seedHint{
			{content: "Start by finding a way to bypass authentication", cost: 75},
			{content: "Look for file upload vulnerabilities", cost: 100},
			{content: "The admin panel might have additional vulnerabilities", cost: 125},
		},
	},
	{
		name:        "Impossible Crypto",
		description: "This cryptographic challenge is considered nearly impossible. Only the most skilled cryptographers should attempt it.\n\nGood luck, you'll need it.",
		category:    models.CategoryCrypto,
		points:      500,
		flag:        "flag{1mp0ss1bl3_cr7pt0_m4st3r}",
		difficulty:  models.DifficultyInsane,
		tags:        []string{"advanced", "cryptography", "expert"},
		hints: []seedHint{
			{content: "This involves advanced mathematical concepts", cost: 150},
			{content: "Consider elliptic curve cryptography", cost: 200},
			{content: "The solution requires deep understanding of number theory", cost: 250},
		},
	},
}

func (s *seedService) SeedChallenges(ctx context.Context, token string) (SeedResult, error) {
	if !s.enabled {
		return SeedResult{}, ErrSeedDisabled
	}
	if s.token == "" || subtle.ConstantTimeCompare([]byte(token), []byte(s.token)) != 1 {
		return SeedResult{}, ErrSeedUnauthorized
	}

	owner, err := s.findElevatedOwner(ctx)
	if err != nil {
		return SeedResult{}, err
	}

	result := SeedResult{Created: []string{}, Skipped: []string{}}

	for _, seed := range sampleChallenges {
		cipher, iv, err := s.vault.Encrypt(seed.flag)
		if err != nil {
			return result, err
		}

		challenge := models.Challenge{
			Name:          seed.name,
			Description:   seed.description,
			Category:      seed.category,
			Points:        seed.points,
			Difficulty:    seed.difficulty,
			FlagCipher:    cipher,
			FlagIV:        iv,
			ChallengeLink: seed.link,
			Tags:          datatypes.NewJSONSlice(seed.tags),
			IsVisible:     true,
			CreatedByID:   owner.ID,
		}
		for i, hint := range seed.hints {
			challenge.Hints = append(challenge.Hints, models.Hint{
				Position: i,
				Content:  hint.content,
				Cost:     hint.cost,
			})
		}

		if err := s.challenges.Create(ctx, &challenge); err != nil {
			if errors.Is(err, repository.ErrDuplicateName) {
				result.Skipped = append(result.Skipped, seed.name)
				continue
			}
			return result, err
		}

		s.logger.Info().Str("challenge", seed.name).Msg("challenge seeded")
		result.Created = append(result.Created, seed.name)
	}

	return result, nil
}

// findElevatedOwner picks the elevated account that will own the seeded
// challenges. Seeding refuses to run against a store with no admin.
func (s *seedService) findElevatedOwner(ctx context.Context) (models.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return models.User{}, err
	}
	for _, user := range users {
		if user.IsElevated() {
			return user, nil
		}
	}
	return models.User{}, ErrNoAdminAccount
}
