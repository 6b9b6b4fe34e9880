package quiz

// defaultQuestions is the built-in blockchain set drawn from when no admin
// questions exist.
var defaultQuestions = []Question{
	{
		ID:       1,
		Question: "What is a blockchain?",
		Options: []string{
			"A type of cryptocurrency",
			"A distributed ledger technology",
			"A programming language",
			"A database management system",
		},
		CorrectAnswer: 1,
		Explanation:   "Blockchain is a distributed ledger technology that maintains a continuously growing list of records, called blocks, which are linked and secured using cryptography.",
	},
	{
		ID:       2,
		Question: "Who is credited with creating Bitcoin?",
		Options: []string{
			"Vitalik Buterin",
			"Satoshi Nakamoto",
			"Nick Szabo",
			"Hal Finney",
		},
		CorrectAnswer: 1,
		Explanation:   "Satoshi Nakamoto is the pseudonymous person or group who created Bitcoin and authored the original Bitcoin whitepaper.",
	},
	{
		ID:       3,
		Question: "What is the primary purpose of mining in blockchain?",
		Options: []string{
			"To create new cryptocurrencies",
			"To validate transactions and secure the network",
			"To store data",
			"To create smart contracts",
		},
		CorrectAnswer: 1,
		Explanation:   "Mining is the process of validating transactions and adding them to the blockchain while securing the network through computational work.",
	},
	{
		ID:       4,
		Question: "What is a smart contract?",
		Options: []string{
			"A legal document stored digitally",
			"A self-executing contract with terms directly written into code",
			"A contract between miners",
			"A cryptocurrency exchange agreement",
		},
		CorrectAnswer: 1,
		Explanation:   "Smart contracts are self-executing contracts with the terms of the agreement directly written into lines of code, which automatically execute when predetermined conditions are met.",
	},
	{
		ID:       5,
		Question: "Which consensus mechanism does Bitcoin use?",
		Options: []string{
			"Proof of Stake",
			"Proof of Work",
			"Delegated Proof of Stake",
			"Proof of Authority",
		},
		CorrectAnswer: 1,
		Explanation:   "Bitcoin uses Proof of Work (PoW) consensus mechanism, where miners compete to solve cryptographic puzzles to validate transactions and create new blocks.",
	},
	{
		ID:       6,
		Question: "What is a hash function in blockchain?",
		Options: []string{
			"A function that encrypts data",
			"A function that creates a fixed-size output from variable input",
			"A function that validates transactions",
			"A function that creates new blocks",
		},
		CorrectAnswer: 1,
		Explanation:   "A hash function takes an input of any size and produces a fixed-size string of characters, which appears random and is used for data integrity and security in blockchain.",
	},
	{
		ID:       7,
		Question: "What is the maximum supply of Bitcoin?",
		Options: []string{
			"18 million",
			"21 million",
			"25 million",
			"Unlimited",
		},
		CorrectAnswer: 1,
		Explanation:   "Bitcoin has a maximum supply cap of 21 million coins, which is built into the protocol and cannot be changed.",
	},
	{
		ID:       8,
		Question: "What is a private key in blockchain?",
		Options: []string{
			"A public identifier for your wallet",
			"A secret key used to authorize transactions",
			"A password for blockchain networks",
			"A key used by miners",
		},
		CorrectAnswer: 1,
		Explanation:   "A private key is a secret cryptographic key that allows the holder to access and spend the cryptocurrency associated with a specific address.",
	},
	{
		ID:       9,
		Question: "What is decentralization in blockchain?",
		Options: []string{
			"Storing data in one central location",
			"Distributing control across multiple nodes",
			"Using only one computer to run the network",
			"Having a single administrator",
		},
		CorrectAnswer: 1,
		Explanation:   "Decentralization means distributing control and decision-making across multiple nodes rather than having a single central authority.",
	},
	{
		ID:       10,
		Question: "What is a fork in blockchain?",
		Options: []string{
			"A physical tool used in mining",
			"A change to the blockchain protocol rules",
			"A type of cryptocurrency",
			"A method of storing data",
		},
		CorrectAnswer: 1,
		Explanation:   "A fork is a change to the blockchain protocol rules, which can be either a soft fork (backward compatible) or hard fork (not backward compatible).",
	},
	{
		ID:       11,
		Question: "What is the purpose of a nonce in blockchain?",
		Options: []string{
			"To encrypt transactions",
			"A number used once in cryptographic hashing",
			"To identify unique users",
			"To store transaction data",
		},
		CorrectAnswer: 1,
		Explanation:   "A nonce (number used once) is a value used in mining to vary the hash output and find a hash that meets the network's difficulty requirement.",
	},
	{
		ID:       12,
		Question: "What is Ethereum's native cryptocurrency called?",
		Options: []string{
			"Bitcoin",
			"Ether (ETH)",
			"Litecoin",
			"Ripple",
		},
		CorrectAnswer: 1,
		Explanation:   "Ether (ETH) is the native cryptocurrency of the Ethereum blockchain platform.",
	},
	{
		ID:       13,
		Question: "What is a Merkle Tree in blockchain?",
		Options: []string{
			"A type of cryptocurrency",
			"A binary tree structure for efficient transaction verification",
			"A mining algorithm",
			"A wallet type",
		},
		CorrectAnswer: 1,
		Explanation:   "A Merkle Tree is a binary tree structure that allows for efficient and secure verification of large data structures, used in blockchain to verify transactions in a block.",
	},
	{
		ID:       14,
		Question: "What is gas in Ethereum?",
		Options: []string{
			"A type of cryptocurrency",
			"A unit of measurement for computational work",
			"A mining hardware",
			"A wallet feature",
		},
		CorrectAnswer: 1,
		Explanation:   "Gas is the unit used to measure the computational effort required to execute operations on the Ethereum network.",
	},
	{
		ID:       15,
		Question: "What is a 51% attack?",
		Options: []string{
			"When 51% of users leave the network",
			"When someone controls majority of network's mining power",
			"When 51% of transactions fail",
			"When 51% of nodes go offline",
		},
		CorrectAnswer: 1,
		Explanation:   "A 51% attack occurs when a single entity or group controls more than 50% of the network's mining hash rate, potentially allowing them to manipulate transactions.",
	},
}

// DefaultQuestions returns a copy of the built-in set.
func DefaultQuestions() []Question {
	out := make([]Question, len(defaultQuestions))
	for idx, question := range defaultQuestions {
		question.Options = append([]string(nil), question.Options...)
		out[idx] = question
	}
	return out
}
