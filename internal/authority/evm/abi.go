package evm

// billboardABI covers the contract surface this service uses. Matches the
// deployed timed-auction Billboard contract.
const billboardABI = `[
  {"type":"function","stateMutability":"nonpayable","name":"placeBidFor","inputs":[
    {"name":"slot","type":"uint256"},
    {"name":"advertiser","type":"address"},
    {"name":"imageUrl","type":"string"},
    {"name":"linkUrl","type":"string"},
    {"name":"title","type":"string"},
    {"name":"bidAmount","type":"uint256"}],"outputs":[]},
  {"type":"function","stateMutability":"nonpayable","name":"finalizeRound","inputs":[
    {"name":"slot","type":"uint256"}],"outputs":[]},
  {"type":"function","stateMutability":"view","name":"getSlotAd","inputs":[
    {"name":"slot","type":"uint256"}],"outputs":[
    {"name":"advertiser","type":"address"},
    {"name":"imageUrl","type":"string"},
    {"name":"linkUrl","type":"string"},
    {"name":"title","type":"string"},
    {"name":"bidAmount","type":"uint256"},
    {"name":"timeRemaining","type":"uint256"},
    {"name":"isActive","type":"bool"}]},
  {"type":"function","stateMutability":"view","name":"getBiddingStatus","inputs":[],"outputs":[
    {"name":"biddingOpen","type":"bool"},
    {"name":"currentRoundId","type":"uint256"},
    {"name":"nextRoundId","type":"uint256"},
    {"name":"timeUntilBidding","type":"uint256"},
    {"name":"timeUntilNextRound","type":"uint256"},
    {"name":"mainHighestBid","type":"uint256"},
    {"name":"mainHighestBidder","type":"address"},
    {"name":"secondaryHighestBid","type":"uint256"},
    {"name":"secondaryHighestBidder","type":"address"}]},
  {"type":"function","stateMutability":"view","name":"getMinimumBid","inputs":[
    {"name":"slot","type":"uint256"}],"outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","stateMutability":"view","name":"getStats","inputs":[],"outputs":[
    {"name":"_totalRevenue","type":"uint256"},
    {"name":"_totalBurned","type":"uint256"},
    {"name":"_totalRounds","type":"uint256"}]},
  {"type":"function","stateMutability":"view","name":"getPendingRefund","inputs":[
    {"name":"bidder","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","stateMutability":"view","name":"highestBid","inputs":[
    {"name":"slot","type":"uint256"}],"outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","stateMutability":"view","name":"lastFinalizedRound","inputs":[
    {"name":"slot","type":"uint256"}],"outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","stateMutability":"nonpayable","name":"withdrawRevenue","inputs":[
    {"name":"to","type":"address"}],"outputs":[]},
  {"type":"function","stateMutability":"nonpayable","name":"recordBurn","inputs":[
    {"name":"amount","type":"uint256"}],"outputs":[]}
]`
